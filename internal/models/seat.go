package models

import (
	"fmt"
	"time"
)

// SeatGroup identifies the column of a seat within the vehicle
type SeatGroup string

const (
	SeatGroupA    SeatGroup = "A"    // window side
	SeatGroupB    SeatGroup = "B"    // aisle side
	SeatGroupBack SeatGroup = "BACK" // rear bench
)

// SeatType describes window/aisle placement
type SeatType string

const (
	SeatTypeWindow SeatType = "WINDOW"
	SeatTypeAisle  SeatType = "AISLE"
	SeatTypeBack   SeatType = "BACK"
)

// Seat represents a physical seat on a vehicle. Position is only set
// for back-row seats, numbering the bench left to right.
type Seat struct {
	ID        string    `json:"id" db:"id"`
	VehicleID string    `json:"vehicle_id" db:"vehicle_id"`
	RowNumber int       `json:"row_number" db:"row_number"`
	SeatGroup SeatGroup `json:"seat_group" db:"seat_group"`
	Position  *int      `json:"position,omitempty" db:"position"`
	SeatType  SeatType  `json:"seat_type" db:"seat_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Number returns the display number of the seat: "3A" for row seats,
// "BACK-2" for the rear bench.
func (s *Seat) Number() string {
	if s.SeatGroup == SeatGroupBack {
		position := 0
		if s.Position != nil {
			position = *s.Position
		}
		return fmt.Sprintf("BACK-%d", position)
	}
	return fmt.Sprintf("%d%s", s.RowNumber, s.SeatGroup)
}

// SeatAvailabilityStatus represents the per-schedule state of a seat
type SeatAvailabilityStatus string

const (
	SeatAvailable   SeatAvailabilityStatus = "AVAILABLE"
	SeatReserved    SeatAvailabilityStatus = "RESERVED"
	SeatBooked      SeatAvailabilityStatus = "BOOKED"
	SeatUnavailable SeatAvailabilityStatus = "UNAVAILABLE"
)

// SeatAvailability tracks the state of one seat on one schedule
type SeatAvailability struct {
	ID         string                 `json:"id" db:"id"`
	ScheduleID string                 `json:"schedule_id" db:"schedule_id"`
	SeatID     string                 `json:"seat_id" db:"seat_id"`
	SeatNumber string                 `json:"seat_number" db:"seat_number"`
	Status     SeatAvailabilityStatus `json:"status" db:"status"`
	TicketID   *string                `json:"ticket_id,omitempty" db:"ticket_id"`
	UpdatedAt  time.Time              `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether the seat can accept a new ticket
func (sa *SeatAvailability) IsBookable() bool {
	return sa.Status == SeatAvailable
}

// SeatMap summarizes all seat states of one schedule
type SeatMap struct {
	ScheduleID string             `json:"schedule_id"`
	Total      int                `json:"total"`
	Available  int                `json:"available"`
	Seats      []SeatAvailability `json:"seats"`
}
