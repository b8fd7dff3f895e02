package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// VehicleService manages the fleet register: vehicles, their seat grids
// and manual status changes.
type VehicleService struct {
	vehicleRepo   *database.VehicleRepository
	seatService   *SeatService
	notifications *NotificationService
	broadcaster   Broadcaster
	logger        *logrus.Logger
}

// NewVehicleService creates a new VehicleService
func NewVehicleService(
	vehicleRepo *database.VehicleRepository,
	seatService *SeatService,
	notifications *NotificationService,
	broadcaster Broadcaster,
	logger *logrus.Logger,
) *VehicleService {
	return &VehicleService{
		vehicleRepo:   vehicleRepo,
		seatService:   seatService,
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// CreateVehicle registers a vehicle and builds its physical seat grid
func (s *VehicleService) CreateVehicle(req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("vehicle", err.Error())
	}

	if req.VehicleSubtypeID != nil {
		if _, err := s.vehicleRepo.GetSubtypeByID(*req.VehicleSubtypeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NewNotFoundError("vehicle subtype", *req.VehicleSubtypeID)
			}
			return nil, fmt.Errorf("failed to load vehicle subtype: %w", err)
		}
	}

	vehicle := &models.Vehicle{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		RowCount:           req.RowCount,
		HasBackRow:         req.HasBackRow,
		VehicleSubtypeID:   req.VehicleSubtypeID,
		Status:             models.VehicleStatusActive,
	}
	if err := s.vehicleRepo.Create(vehicle); err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	if _, err := s.seatService.EnsureSeats(vehicle); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"vehicle_id":   vehicle.ID,
		"registration": vehicle.RegistrationNumber,
		"capacity":     vehicle.Capacity(),
	}).Info("Vehicle registered")
	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID
func (s *VehicleService) GetVehicle(vehicleID string) (*models.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(vehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", vehicleID)
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}
	return vehicle, nil
}

// ListVehicles returns vehicles, optionally filtered by status. An unknown
// status is rejected rather than matching nothing.
func (s *VehicleService) ListVehicles(status string) ([]models.Vehicle, error) {
	var statusFilter *models.VehicleStatus
	if status != "" {
		parsed := models.VehicleStatus(status)
		switch parsed {
		case models.VehicleStatusActive, models.VehicleStatusReserved,
			models.VehicleStatusMaintenance, models.VehicleStatusInactive:
		default:
			return nil, domain.NewValidationError("status", "invalid vehicle status")
		}
		statusFilter = &parsed
	}
	return s.vehicleRepo.List(statusFilter)
}

// UpdateStatus applies a manual vehicle status change. The new status is
// broadcast, and a MAINTENANCE move additionally notifies staff so the
// affected trips get reviewed.
func (s *VehicleService) UpdateStatus(vehicleID string, req *models.UpdateVehicleStatusRequest) (*models.Vehicle, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("status", err.Error())
	}

	vehicle, err := s.GetVehicle(vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.Status == req.Status {
		return vehicle, nil
	}

	if err := s.vehicleRepo.UpdateStatus(vehicleID, req.Status); err != nil {
		return nil, fmt.Errorf("failed to update vehicle status: %w", err)
	}
	previous := vehicle.Status
	vehicle.Status = req.Status

	s.logger.WithFields(logrus.Fields{
		"vehicle_id": vehicleID,
		"from":       previous,
		"to":         req.Status,
	}).Info("Vehicle status changed")

	event := models.NewStatusUpdateEvent(models.TargetKindVehicle, vehicleID, string(req.Status))
	s.broadcaster.Publish(event.Topic(), event)

	if req.Status == models.VehicleStatusMaintenance {
		reason := "unspecified"
		if req.Reason != nil {
			reason = *req.Reason
		}
		relatedKind := string(models.TargetKindVehicle)
		s.notifications.NotifyStaff(
			models.NotificationVehicleMaintenance,
			"Vehicle moved to maintenance",
			fmt.Sprintf("Vehicle %s (%s) is under maintenance: %s", vehicle.Name, vehicle.RegistrationNumber, reason),
			&relatedKind, &vehicleID,
		)
	}
	return vehicle, nil
}

// CreateType registers a vehicle type
func (s *VehicleService) CreateType(vehicleType *models.VehicleType) error {
	if vehicleType.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	return s.vehicleRepo.CreateType(vehicleType)
}

// CreateSubtype registers a vehicle subtype with its pricing parameters
func (s *VehicleService) CreateSubtype(subtype *models.VehicleSubtype) error {
	if subtype.Name == "" {
		return domain.NewValidationError("name", "name is required")
	}
	if subtype.RatePerKM <= 0 {
		return domain.NewValidationError("rate_per_km", "rate_per_km must be positive")
	}
	if subtype.MinPrice < 0 {
		return domain.NewValidationError("min_price", "min_price must not be negative")
	}
	return s.vehicleRepo.CreateSubtype(subtype)
}

// ListSubtypes returns all vehicle subtypes
func (s *VehicleService) ListSubtypes() ([]models.VehicleSubtype, error) {
	return s.vehicleRepo.ListSubtypes()
}
