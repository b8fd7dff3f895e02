package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// WindowsOverlap reports whether [s1, e1) overlaps [s2, e2). Windows
// that merely touch at an endpoint do not overlap.
func WindowsOverlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// AvailabilityOptions lets a caller exclude the commitment it is editing
// or deciding so it does not conflict with itself.
type AvailabilityOptions struct {
	ExcludeScheduleID    string
	ExcludeReservationID string
}

// AvailabilityService resolves whether a vehicle is free for a time
// window, checking its status and every active commitment.
type AvailabilityService struct {
	vehicleRepo     *database.VehicleRepository
	scheduleRepo    *database.ScheduleRepository
	reservationRepo *database.SpecialReservationRepository
	logger          *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(
	vehicleRepo *database.VehicleRepository,
	scheduleRepo *database.ScheduleRepository,
	reservationRepo *database.SpecialReservationRepository,
	logger *logrus.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		vehicleRepo:     vehicleRepo,
		scheduleRepo:    scheduleRepo,
		reservationRepo: reservationRepo,
		logger:          logger,
	}
}

// CheckAvailability returns nil when the vehicle is free for [start, end),
// or the first conflict found: vehicle status, then schedules, then
// special reservations.
func (s *AvailabilityService) CheckAvailability(vehicleID string, start, end time.Time, opts AvailabilityOptions) (*models.Conflict, error) {
	if !end.After(start) {
		return nil, domain.NewValidationError("end", "end must be after start")
	}

	vehicle, err := s.vehicleRepo.GetByID(vehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", vehicleID)
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	if !vehicle.IsOperational() {
		return &models.Conflict{
			Kind:     models.ConflictKindVehicleStatus,
			SourceID: vehicle.ID,
			Detail:   fmt.Sprintf("vehicle is %s", vehicle.Status),
		}, nil
	}

	schedules, err := s.scheduleRepo.FindActiveOverlapping(vehicleID, start, end, opts.ExcludeScheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check schedule conflicts: %w", err)
	}
	if len(schedules) > 0 {
		first := schedules[0]
		return &models.Conflict{
			Kind:      models.ConflictKindSchedule,
			SourceID:  first.ID,
			StartTime: &first.DepartureTime,
			EndTime:   &first.ArrivalTime,
			Detail:    "vehicle has a scheduled trip in this window",
		}, nil
	}

	reservations, err := s.reservationRepo.FindActiveOverlapping(vehicleID, start, end, opts.ExcludeReservationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation conflicts: %w", err)
	}
	if len(reservations) > 0 {
		first := reservations[0]
		resEnd := first.EndTime()
		return &models.Conflict{
			Kind:      models.ConflictKindSpecialReservation,
			SourceID:  first.ID,
			StartTime: &first.DepartureTime,
			EndTime:   &resEnd,
			Detail:    "vehicle has a charter reservation in this window",
		}, nil
	}

	return nil, nil
}

// RequireAvailable runs CheckAvailability and converts any conflict into
// a ConflictError, for callers that must reject on conflict.
func (s *AvailabilityService) RequireAvailable(vehicleID string, start, end time.Time, opts AvailabilityOptions) error {
	conflict, err := s.CheckAvailability(vehicleID, start, end, opts)
	if err != nil {
		return err
	}
	if conflict != nil {
		return domain.NewConflictError("vehicle", vehicleID, conflict.Detail)
	}
	return nil
}

// FindAvailableVehicles returns every operational vehicle with at least
// minCapacity seats that is free for [start, end).
func (s *AvailabilityService) FindAvailableVehicles(start, end time.Time, minCapacity int) ([]models.Vehicle, error) {
	if !end.After(start) {
		return nil, domain.NewValidationError("end", "end must be after start")
	}

	candidates, err := s.vehicleRepo.ListOperational(minCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	available := make([]models.Vehicle, 0, len(candidates))
	for _, vehicle := range candidates {
		conflict, err := s.CheckAvailability(vehicle.ID, start, end, AvailabilityOptions{})
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			available = append(available, vehicle)
		}
	}
	return available, nil
}
