package models

import (
	"errors"
	"time"
)

// VehicleStatus represents the operational status of a vehicle
type VehicleStatus string

const (
	VehicleStatusActive      VehicleStatus = "ACTIVE"
	VehicleStatusReserved    VehicleStatus = "RESERVED"
	VehicleStatusMaintenance VehicleStatus = "MAINTENANCE"
	VehicleStatusInactive    VehicleStatus = "INACTIVE"
)

// VehicleType represents a broad vehicle category, e.g. bus or van
type VehicleType struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// VehicleSubtype refines a vehicle type and carries the per-km rate and
// minimum price used by the pricing engine.
type VehicleSubtype struct {
	ID                string    `json:"id" db:"id"`
	VehicleTypeID     string    `json:"vehicle_type_id" db:"vehicle_type_id"`
	Name              string    `json:"name" db:"name"`
	SubtypeCode       string    `json:"subtype_code" db:"subtype_code"`
	RatePerKM         float64   `json:"rate_per_km" db:"rate_per_km"`
	MinPrice          float64   `json:"min_price" db:"min_price"`
	HasAC             bool      `json:"has_ac" db:"has_ac"`
	HasWifi           bool      `json:"has_wifi" db:"has_wifi"`
	HasEntertainment  bool      `json:"has_entertainment" db:"has_entertainment"`
	HasChargingPorts  bool      `json:"has_charging_ports" db:"has_charging_ports"`
	HasRecliningSeats bool      `json:"has_reclining_seats" db:"has_reclining_seats"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Vehicle represents a vehicle in the fleet
type Vehicle struct {
	ID                 string        `json:"id" db:"id"`
	Name               string        `json:"name" db:"name"`
	RegistrationNumber string        `json:"registration_number" db:"registration_number"`
	RowCount           int           `json:"row_count" db:"row_count"`
	HasBackRow         bool          `json:"has_back_row" db:"has_back_row"`
	VehicleSubtypeID   *string       `json:"vehicle_subtype_id,omitempty" db:"vehicle_subtype_id"`
	Status             VehicleStatus `json:"status" db:"status"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// Capacity returns the total seat count of the vehicle. Each row seats
// two passengers (window and aisle); the back row, when present, seats
// five.
func (v *Vehicle) Capacity() int {
	capacity := v.RowCount * 2
	if v.HasBackRow {
		capacity += 5
	}
	return capacity
}

// IsOperational reports whether the vehicle can take new commitments.
// MAINTENANCE and INACTIVE vehicles block every window outright.
func (v *Vehicle) IsOperational() bool {
	return v.Status != VehicleStatusMaintenance && v.Status != VehicleStatusInactive
}

// CreateVehicleRequest represents the request to register a vehicle
type CreateVehicleRequest struct {
	Name               string  `json:"name" binding:"required"`
	RegistrationNumber string  `json:"registration_number" binding:"required"`
	RowCount           int     `json:"row_count" binding:"required"`
	HasBackRow         bool    `json:"has_back_row"`
	VehicleSubtypeID   *string `json:"vehicle_subtype_id,omitempty"`
}

// Validate validates the create vehicle request
func (r *CreateVehicleRequest) Validate() error {
	if r.RowCount < 1 {
		return errors.New("row_count must be at least 1")
	}
	if r.RowCount > 30 {
		return errors.New("row_count must not exceed 30")
	}
	return nil
}

// UpdateVehicleStatusRequest represents the request to change a vehicle's status
type UpdateVehicleStatusRequest struct {
	Status VehicleStatus `json:"status" binding:"required"`
	Reason *string       `json:"reason,omitempty"`
}

// Validate validates the status change request
func (r *UpdateVehicleStatusRequest) Validate() error {
	switch r.Status {
	case VehicleStatusActive, VehicleStatusReserved,
		VehicleStatusMaintenance, VehicleStatusInactive:
		return nil
	}
	return errors.New("invalid vehicle status")
}

// ConflictKind identifies the source of an availability conflict
type ConflictKind string

const (
	ConflictKindVehicleStatus      ConflictKind = "vehicle_status"
	ConflictKindSchedule           ConflictKind = "schedule"
	ConflictKindSpecialReservation ConflictKind = "special_reservation"
)

// Conflict describes the commitment that blocks a requested window.
// A nil *Conflict means the vehicle is free.
type Conflict struct {
	Kind      ConflictKind `json:"kind"`
	SourceID  string       `json:"source_id,omitempty"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Detail    string       `json:"detail"`
}

// AvailabilityResult is the outcome of an availability check
type AvailabilityResult struct {
	VehicleID string    `json:"vehicle_id"`
	Available bool      `json:"available"`
	Conflict  *Conflict `json:"conflict,omitempty"`
}
