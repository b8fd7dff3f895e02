package models

import (
	"errors"
	"time"
)

// TicketStatus represents the lifecycle status of a seat ticket
type TicketStatus string

const (
	TicketStatusReserved  TicketStatus = "RESERVED"
	TicketStatusConfirmed TicketStatus = "CONFIRMED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusCompleted TicketStatus = "COMPLETED"
)

// Ticket represents one seat sold on one schedule
type Ticket struct {
	ID                 string       `json:"id" db:"id"`
	ScheduleID         string       `json:"schedule_id" db:"schedule_id"`
	SeatID             string       `json:"seat_id" db:"seat_id"`
	SeatNumber         string       `json:"seat_number" db:"seat_number"`
	CustomerID         string       `json:"customer_id" db:"customer_id"`
	OfferID            *string      `json:"offer_id,omitempty" db:"offer_id"`
	BasePrice          float64      `json:"base_price" db:"base_price"`
	Discount           float64      `json:"discount" db:"discount"`
	FinalPrice         float64      `json:"final_price" db:"final_price"`
	Status             TicketStatus `json:"status" db:"status"`
	PassengerName      string       `json:"passenger_name" db:"passenger_name"`
	BookingTime        time.Time    `json:"booking_time" db:"booking_time"`
	CancellationTime   *time.Time   `json:"cancellation_time,omitempty" db:"cancellation_time"`
	CancellationReason *string      `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the ticket still holds its seat
func (t *Ticket) IsActive() bool {
	return t.Status == TicketStatusReserved || t.Status == TicketStatusConfirmed
}

// CanBeCancelled reports whether the ticket may be cancelled
func (t *Ticket) CanBeCancelled() bool {
	return t.Status == TicketStatusReserved || t.Status == TicketStatusConfirmed
}

// CanBeConfirmed reports whether the ticket may be confirmed
func (t *Ticket) CanBeConfirmed() bool {
	return t.Status == TicketStatusReserved
}

// SeatStatusFor maps a ticket status to the seat availability status it
// implies. RESERVED holds the seat, CONFIRMED books it, and a ticket
// that ends releases it.
func SeatStatusFor(status TicketStatus) SeatAvailabilityStatus {
	switch status {
	case TicketStatusReserved:
		return SeatReserved
	case TicketStatusConfirmed:
		return SeatBooked
	default:
		return SeatAvailable
	}
}

// BookTicketRequest represents the request to buy a seat on a schedule
type BookTicketRequest struct {
	ScheduleID    string  `json:"schedule_id" binding:"required"`
	SeatID        string  `json:"seat_id" binding:"required"`
	PassengerName string  `json:"passenger_name" binding:"required"`
	OfferCode     *string `json:"offer_code,omitempty"`
}

// Validate validates the book ticket request
func (r *BookTicketRequest) Validate() error {
	if len(r.PassengerName) > 120 {
		return errors.New("passenger_name must not exceed 120 characters")
	}
	return nil
}

// CancelTicketRequest carries the optional reason for a cancellation
type CancelTicketRequest struct {
	Reason *string `json:"reason,omitempty"`
}
