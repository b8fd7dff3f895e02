package models

import "time"

// Broadcast event type tags
const (
	EventTypeStatusUpdate = "status_update"
	EventTypeSeatUpdate   = "seat_update"
)

// Target kinds for status update events
const (
	TargetKindVehicle     = "vehicle"
	TargetKindSchedule    = "schedule"
	TargetKindReservation = "reservation"
	TargetKindTicket      = "ticket"
)

// StatusUpdateEvent is broadcast whenever a vehicle, schedule, ticket or
// reservation changes status.
type StatusUpdateEvent struct {
	Type       string    `json:"type"` // always "status_update"
	TargetKind string    `json:"targetKind"`
	TargetID   string    `json:"targetId"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStatusUpdateEvent builds a status update event stamped now
func NewStatusUpdateEvent(targetKind, targetID, status string) StatusUpdateEvent {
	return StatusUpdateEvent{
		Type:       EventTypeStatusUpdate,
		TargetKind: targetKind,
		TargetID:   targetID,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	}
}

// Topic returns the broadcast topic for the event
func (e StatusUpdateEvent) Topic() string {
	return e.TargetKind + ":" + e.TargetID
}

// SeatUpdateEvent is broadcast whenever a seat changes state on a
// schedule, so seat maps on open clients stay current.
type SeatUpdateEvent struct {
	Type       string    `json:"type"` // always "seat_update"
	ScheduleID string    `json:"scheduleId"`
	SeatID     string    `json:"seatId"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSeatUpdateEvent builds a seat update event stamped now
func NewSeatUpdateEvent(scheduleID, seatID string, status SeatAvailabilityStatus) SeatUpdateEvent {
	return SeatUpdateEvent{
		Type:       EventTypeSeatUpdate,
		ScheduleID: scheduleID,
		SeatID:     seatID,
		Status:     string(status),
		Timestamp:  time.Now().UTC(),
	}
}

// Topic returns the broadcast topic for the event
func (e SeatUpdateEvent) Topic() string {
	return "seats:" + e.ScheduleID
}
