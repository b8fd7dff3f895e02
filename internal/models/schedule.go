package models

import (
	"errors"
	"time"
)

// ScheduleStatus represents the lifecycle status of a scheduled trip
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "SCHEDULED"
	ScheduleStatusDelayed    ScheduleStatus = "DELAYED"
	ScheduleStatusInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleStatusCompleted  ScheduleStatus = "COMPLETED"
	ScheduleStatusCancelled  ScheduleStatus = "CANCELLED"
)

// Schedule represents a published passenger trip on a route with an
// assigned vehicle, a departure window and a derived base seat price.
type Schedule struct {
	ID            string         `json:"id" db:"id"`
	RouteID       string         `json:"route_id" db:"route_id"`
	VehicleID     string         `json:"vehicle_id" db:"vehicle_id"`
	DepartureTime time.Time      `json:"departure_time" db:"departure_time"`
	ArrivalTime   time.Time      `json:"arrival_time" db:"arrival_time"`
	BasePrice     float64        `json:"base_price" db:"base_price"`
	Status        ScheduleStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the schedule still occupies its vehicle
func (s *Schedule) IsActive() bool {
	switch s.Status {
	case ScheduleStatusScheduled, ScheduleStatusDelayed, ScheduleStatusInProgress:
		return true
	}
	return false
}

// IsBookable reports whether tickets may still be sold for the schedule
func (s *Schedule) IsBookable() bool {
	return s.Status == ScheduleStatusScheduled || s.Status == ScheduleStatusDelayed
}

// Overlaps reports whether the schedule's window overlaps [start, end).
// Windows that merely touch at an endpoint do not overlap.
func (s *Schedule) Overlaps(start, end time.Time) bool {
	return s.DepartureTime.Before(end) && start.Before(s.ArrivalTime)
}

// CreateScheduleRequest represents the request to publish a schedule.
// The base price is derived from the route and vehicle subtype, never
// supplied by the caller.
type CreateScheduleRequest struct {
	RouteID       string    `json:"route_id" binding:"required"`
	VehicleID     string    `json:"vehicle_id" binding:"required"`
	DepartureTime time.Time `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time `json:"arrival_time" binding:"required"`
}

// Validate validates the create schedule request
func (r *CreateScheduleRequest) Validate() error {
	if !r.ArrivalTime.After(r.DepartureTime) {
		return errors.New("arrival_time must be after departure_time")
	}
	return nil
}

// UpdateScheduleRequest represents the request to edit a schedule
type UpdateScheduleRequest struct {
	VehicleID     *string    `json:"vehicle_id,omitempty"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty"`
	Status        *string    `json:"status,omitempty"`
}

// Validate validates the update schedule request
func (r *UpdateScheduleRequest) Validate() error {
	if r.DepartureTime != nil && r.ArrivalTime != nil && !r.ArrivalTime.After(*r.DepartureTime) {
		return errors.New("arrival_time must be after departure_time")
	}
	if r.Status != nil {
		switch ScheduleStatus(*r.Status) {
		case ScheduleStatusScheduled, ScheduleStatusDelayed, ScheduleStatusInProgress:
		case ScheduleStatusCompleted, ScheduleStatusCancelled:
			// terminal statuses release tickets and seats, which only the
			// completion flow does
			return errors.New("terminal statuses cannot be set by an edit; use the complete endpoint")
		default:
			return errors.New("invalid schedule status")
		}
	}
	return nil
}
