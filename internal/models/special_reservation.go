package models

import (
	"errors"
	"time"
)

// ReservationStatus represents the lifecycle status of a charter reservation
type ReservationStatus string

const (
	ReservationStatusRequested ReservationStatus = "REQUESTED"
	ReservationStatusApproved  ReservationStatus = "APPROVED"
	ReservationStatusRejected  ReservationStatus = "REJECTED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
)

// SpecialReservation represents a whole-vehicle charter booking with its
// full price breakdown.
type SpecialReservation struct {
	ID                   string     `json:"id" db:"id"`
	CustomerID           string     `json:"customer_id" db:"customer_id"`
	VehicleID            string     `json:"vehicle_id" db:"vehicle_id"`
	Source               string     `json:"source" db:"source"`
	Destination          string     `json:"destination" db:"destination"`
	Stops                StringArray `json:"stops,omitempty" db:"stops"`
	DistanceKM           float64    `json:"distance_km" db:"distance_km"`
	DepartureTime        time.Time  `json:"departure_time" db:"departure_time"`
	EstimatedArrivalTime time.Time  `json:"estimated_arrival_time" db:"estimated_arrival_time"`
	IsRoundTrip          bool       `json:"is_round_trip" db:"is_round_trip"`
	ReturnTime           *time.Time `json:"return_time,omitempty" db:"return_time"`
	DurationDays         int        `json:"duration_days" db:"duration_days"`
	TripPurpose          *string    `json:"trip_purpose,omitempty" db:"trip_purpose"`
	PassengerCount       int        `json:"passenger_count" db:"passenger_count"`

	// Pricing inputs
	SeasonFactor      float64 `json:"season_factor" db:"season_factor"`
	DriverAllowance   float64 `json:"driver_allowance" db:"driver_allowance"`
	DistanceSurcharge float64 `json:"distance_surcharge" db:"distance_surcharge"`
	TimeSurcharge     float64 `json:"time_surcharge" db:"time_surcharge"`
	DemandSurcharge   float64 `json:"demand_surcharge" db:"demand_surcharge"`
	DiscountAmount    float64 `json:"discount_amount" db:"discount_amount"`

	// Derived pricing
	BasePrice         float64 `json:"base_price" db:"base_price"`
	MultiDaySurcharge float64 `json:"multi_day_surcharge" db:"multi_day_surcharge"`
	FinalPrice        float64 `json:"final_price" db:"final_price"`

	// Payments
	DepositAmount   float64    `json:"deposit_amount" db:"deposit_amount"`
	DepositPaidDate *time.Time `json:"deposit_paid_date,omitempty" db:"deposit_paid_date"`
	BalanceAmount   float64    `json:"balance_amount" db:"balance_amount"`
	IsFullyPaid     bool       `json:"is_fully_paid" db:"is_fully_paid"`

	Status          ReservationStatus `json:"status" db:"status"`
	RejectionReason *string           `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// OccupiesVehicle reports whether the reservation blocks the vehicle's
// calendar. Requested charters hold their window until a decision is
// made so two customers cannot both be approved for the same slot.
func (r *SpecialReservation) OccupiesVehicle() bool {
	return r.Status == ReservationStatusRequested || r.Status == ReservationStatusApproved
}

// EndTime returns the time the vehicle is released: the return time for
// round trips, the estimated arrival otherwise.
func (r *SpecialReservation) EndTime() time.Time {
	if r.IsRoundTrip && r.ReturnTime != nil {
		return *r.ReturnTime
	}
	return r.EstimatedArrivalTime
}

// Overlaps reports whether the reservation's window overlaps [start, end).
// Windows that merely touch at an endpoint do not overlap.
func (r *SpecialReservation) Overlaps(start, end time.Time) bool {
	return r.DepartureTime.Before(end) && start.Before(r.EndTime())
}

// CreateReservationRequest represents the request for a charter booking
type CreateReservationRequest struct {
	VehicleID       string     `json:"vehicle_id" binding:"required"`
	Source          string     `json:"source" binding:"required"`
	Destination     string     `json:"destination" binding:"required"`
	Stops           []string   `json:"stops,omitempty"`
	DistanceKM      float64    `json:"distance_km" binding:"required"`
	DepartureTime   time.Time  `json:"departure_time" binding:"required"`
	IsRoundTrip     bool       `json:"is_round_trip"`
	ReturnTime      *time.Time `json:"return_time,omitempty"`
	DurationDays    int        `json:"duration_days" binding:"required"`
	TripPurpose     *string    `json:"trip_purpose,omitempty"`
	PassengerCount  int        `json:"passenger_count"`
	SeasonFactor    *float64   `json:"season_factor,omitempty"`
	DriverAllowance *float64   `json:"driver_allowance,omitempty"`
	DemandSurcharge *float64   `json:"demand_surcharge,omitempty"`
	DiscountAmount  *float64   `json:"discount_amount,omitempty"`
}

// Validate validates the create reservation request
func (r *CreateReservationRequest) Validate() error {
	if r.DistanceKM <= 0 {
		return errors.New("distance_km must be positive")
	}
	if r.DurationDays < 1 {
		return errors.New("duration_days must be at least 1")
	}
	if r.PassengerCount < 0 {
		return errors.New("passenger_count must not be negative")
	}
	if r.IsRoundTrip {
		if r.ReturnTime == nil {
			return errors.New("return_time is required for round trips")
		}
		if !r.ReturnTime.After(r.DepartureTime) {
			return errors.New("return_time must be after departure_time")
		}
	}
	if r.SeasonFactor != nil && *r.SeasonFactor <= 0 {
		return errors.New("season_factor must be positive")
	}
	if r.DiscountAmount != nil && *r.DiscountAmount < 0 {
		return errors.New("discount_amount must not be negative")
	}
	return nil
}

// RecordPaymentRequest represents a payment against a reservation
type RecordPaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required"`
	Reference *string `json:"reference,omitempty"`
}

// Validate validates the payment request
func (r *RecordPaymentRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

// RejectReservationRequest carries the reason for rejecting a charter
type RejectReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Quote is the price breakdown computed for a charter request
type Quote struct {
	PerDayCharge      float64 `json:"per_day_charge"`
	BasePrice         float64 `json:"base_price"`
	MultiDaySurcharge float64 `json:"multi_day_surcharge"`
	SeasonFactor      float64 `json:"season_factor"`
	RoundTripFactor   float64 `json:"round_trip_factor"`
	DistanceSurcharge float64 `json:"distance_surcharge"`
	TimeSurcharge     float64 `json:"time_surcharge"`
	DemandSurcharge   float64 `json:"demand_surcharge"`
	DiscountAmount    float64 `json:"discount_amount"`
	FinalPrice        float64 `json:"final_price"`
	DepositAmount     float64 `json:"deposit_amount"`
	BalanceAmount     float64 `json:"balance_amount"`
}
