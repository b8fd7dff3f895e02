package models

import (
	"errors"
	"time"
)

// Route represents a named source-destination pair with a driving distance
type Route struct {
	ID                       string    `json:"id" db:"id"`
	Name                     string    `json:"name" db:"name"`
	Source                   string    `json:"source" db:"source"`
	Destination              string    `json:"destination" db:"destination"`
	DistanceKM               float64   `json:"distance_km" db:"distance_km"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes" db:"estimated_duration_minutes"`
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

// CreateRouteRequest represents the request to create a route
type CreateRouteRequest struct {
	Name                     string  `json:"name" binding:"required"`
	Source                   string  `json:"source" binding:"required"`
	Destination              string  `json:"destination" binding:"required"`
	DistanceKM               float64 `json:"distance_km" binding:"required"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
}

// Validate validates the create route request
func (r *CreateRouteRequest) Validate() error {
	if r.DistanceKM <= 0 {
		return errors.New("distance_km must be positive")
	}
	if r.EstimatedDurationMinutes < 0 {
		return errors.New("estimated_duration_minutes must not be negative")
	}
	return nil
}
