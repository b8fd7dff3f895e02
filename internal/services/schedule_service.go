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

// ScheduleService manages the lifecycle of published trips: creation
// against the vehicle's availability, edits, and completion with its
// seat reset cascade.
type ScheduleService struct {
	db            database.DB
	scheduleRepo  *database.ScheduleRepository
	routeRepo     *database.RouteRepository
	vehicleRepo   *database.VehicleRepository
	ticketRepo    *database.TicketRepository
	availability  *AvailabilityService
	seatService   *SeatService
	pricing       *PricingService
	notifications *NotificationService
	broadcaster   Broadcaster
	logger        *logrus.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(
	db database.DB,
	scheduleRepo *database.ScheduleRepository,
	routeRepo *database.RouteRepository,
	vehicleRepo *database.VehicleRepository,
	ticketRepo *database.TicketRepository,
	availability *AvailabilityService,
	seatService *SeatService,
	pricing *PricingService,
	notifications *NotificationService,
	broadcaster Broadcaster,
	logger *logrus.Logger,
) *ScheduleService {
	return &ScheduleService{
		db:            db,
		scheduleRepo:  scheduleRepo,
		routeRepo:     routeRepo,
		vehicleRepo:   vehicleRepo,
		ticketRepo:    ticketRepo,
		availability:  availability,
		seatService:   seatService,
		pricing:       pricing,
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// CreateSchedule publishes a trip. The vehicle must be free for the whole
// window, the base seat price is derived from the route distance and the
// vehicle subtype's rate, and the seat availability grid is built in the
// same transaction.
func (s *ScheduleService) CreateSchedule(req *models.CreateScheduleRequest) (*models.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("schedule", err.Error())
	}

	route, err := s.routeRepo.GetByID(req.RouteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("route", req.RouteID)
		}
		return nil, fmt.Errorf("failed to load route: %w", err)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	vehicle, err := s.vehicleRepo.GetForUpdateTx(tx, req.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", req.VehicleID)
		}
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}

	if err := s.availability.RequireAvailable(vehicle.ID, req.DepartureTime, req.ArrivalTime, AvailabilityOptions{}); err != nil {
		if domain.IsConflict(err) {
			s.notifyConflict(vehicle.ID, err)
		}
		return nil, err
	}

	basePrice, err := s.basePriceFor(route, vehicle)
	if err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		RouteID:       route.ID,
		VehicleID:     vehicle.ID,
		DepartureTime: req.DepartureTime,
		ArrivalTime:   req.ArrivalTime,
		BasePrice:     basePrice,
		Status:        models.ScheduleStatusScheduled,
	}
	if err := s.scheduleRepo.CreateTx(tx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	if err := s.seatService.InitializeForScheduleTx(tx, schedule); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"route_id":    route.ID,
		"vehicle_id":  vehicle.ID,
		"base_price":  schedule.BasePrice,
	}).Info("Schedule created")

	s.broadcastScheduleStatus(schedule)
	return schedule, nil
}

// UpdateSchedule edits a schedule. Window or vehicle changes re-run the
// availability check excluding the schedule itself; a vehicle change also
// rebuilds the seat grid, dropping any held seats.
func (s *ScheduleService) UpdateSchedule(scheduleID string, req *models.UpdateScheduleRequest) (*models.Schedule, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("schedule", err.Error())
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	schedule, err := s.scheduleRepo.GetForUpdateTx(tx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("schedule", scheduleID)
		}
		return nil, fmt.Errorf("failed to lock schedule: %w", err)
	}
	if !schedule.IsActive() {
		return nil, domain.NewStateError("schedule", string(schedule.Status), "only active schedules can be edited")
	}

	previousStatus := schedule.Status
	vehicleChanged := false

	if req.VehicleID != nil && *req.VehicleID != schedule.VehicleID {
		schedule.VehicleID = *req.VehicleID
		vehicleChanged = true
	}
	if req.DepartureTime != nil {
		schedule.DepartureTime = *req.DepartureTime
	}
	if req.ArrivalTime != nil {
		schedule.ArrivalTime = *req.ArrivalTime
	}
	if !schedule.ArrivalTime.After(schedule.DepartureTime) {
		return nil, domain.NewValidationError("arrival_time", "arrival_time must be after departure_time")
	}
	if req.Status != nil {
		schedule.Status = models.ScheduleStatus(*req.Status)
	}

	vehicle, err := s.vehicleRepo.GetForUpdateTx(tx, schedule.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", schedule.VehicleID)
		}
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}

	if schedule.IsActive() {
		opts := AvailabilityOptions{ExcludeScheduleID: schedule.ID}
		if err := s.availability.RequireAvailable(vehicle.ID, schedule.DepartureTime, schedule.ArrivalTime, opts); err != nil {
			if domain.IsConflict(err) {
				s.notifyConflict(vehicle.ID, err)
			}
			return nil, err
		}
	}

	if vehicleChanged {
		route, err := s.routeRepo.GetByID(schedule.RouteID)
		if err != nil {
			return nil, fmt.Errorf("failed to load route: %w", err)
		}
		basePrice, err := s.basePriceFor(route, vehicle)
		if err != nil {
			return nil, err
		}
		schedule.BasePrice = basePrice
	}

	if err := s.scheduleRepo.UpdateTx(tx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	var seatEvents []models.SeatUpdateEvent
	if vehicleChanged {
		dropped, err := s.seatService.ResetScheduleTx(tx, schedule.ID)
		if err != nil {
			return nil, err
		}
		seatEvents = dropped
		if err := s.seatService.InitializeForScheduleTx(tx, schedule); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id":     schedule.ID,
		"vehicle_changed": vehicleChanged,
		"status":          schedule.Status,
	}).Info("Schedule updated")

	for i := range seatEvents {
		event := seatEvents[i]
		s.broadcaster.Publish(event.Topic(), event)
	}
	if schedule.Status != previousStatus {
		s.broadcastScheduleStatus(schedule)
	}
	return schedule, nil
}

// CompleteSchedule finishes a trip: the schedule goes COMPLETED, its live
// tickets go COMPLETED with it, and every seat returns to AVAILABLE. All
// of it commits in one transaction; events go out afterwards.
func (s *ScheduleService) CompleteSchedule(scheduleID string) (*models.Schedule, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	schedule, err := s.scheduleRepo.GetForUpdateTx(tx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("schedule", scheduleID)
		}
		return nil, fmt.Errorf("failed to lock schedule: %w", err)
	}
	if !schedule.IsActive() {
		return nil, domain.NewStateError("schedule", string(schedule.Status), "schedule is not active")
	}

	if err := s.scheduleRepo.UpdateStatusTx(tx, schedule.ID, models.ScheduleStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete schedule: %w", err)
	}
	schedule.Status = models.ScheduleStatusCompleted

	completedTickets, err := s.ticketRepo.CompleteActiveTx(tx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete tickets: %w", err)
	}

	seatEvents, err := s.seatService.ResetScheduleTx(tx, schedule.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"tickets":     completedTickets,
		"seats_reset": len(seatEvents),
	}).Info("Schedule completed")

	s.broadcastScheduleStatus(schedule)
	for i := range seatEvents {
		event := seatEvents[i]
		s.broadcaster.Publish(event.Topic(), event)
	}
	return schedule, nil
}

// GetSchedule retrieves a schedule by ID
func (s *ScheduleService) GetSchedule(scheduleID string) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("schedule", scheduleID)
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return schedule, nil
}

// ListSchedules returns schedules, optionally filtered by route and status.
// An unknown status is rejected rather than matching nothing.
func (s *ScheduleService) ListSchedules(routeID, status string) ([]models.Schedule, error) {
	var statusFilter *models.ScheduleStatus
	if status != "" {
		parsed := models.ScheduleStatus(status)
		switch parsed {
		case models.ScheduleStatusScheduled, models.ScheduleStatusDelayed,
			models.ScheduleStatusInProgress, models.ScheduleStatusCompleted,
			models.ScheduleStatusCancelled:
		default:
			return nil, domain.NewValidationError("status", "invalid schedule status")
		}
		statusFilter = &parsed
	}
	return s.scheduleRepo.List(routeID, statusFilter)
}

// CompleteOverdue completes every active schedule whose arrival time has
// passed. Each schedule completes in its own transaction so one failure
// does not hold up the rest of the sweep.
func (s *ScheduleService) CompleteOverdue(now time.Time) (int, error) {
	overdue, err := s.scheduleRepo.FindOverdue(now)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue schedules: %w", err)
	}

	completed := 0
	for i := range overdue {
		if _, err := s.CompleteSchedule(overdue[i].ID); err != nil {
			if domain.IsState(err) || domain.IsNotFound(err) {
				continue
			}
			s.logger.WithFields(logrus.Fields{
				"schedule_id": overdue[i].ID,
				"error":       err.Error(),
			}).Error("Failed to complete overdue schedule")
			continue
		}
		completed++
	}
	return completed, nil
}

func (s *ScheduleService) notifyConflict(vehicleID string, cause error) {
	relatedKind := string(models.TargetKindVehicle)
	s.notifications.NotifyStaff(
		models.NotificationScheduleConflict,
		"Schedule conflict",
		fmt.Sprintf("Vehicle %s could not be scheduled: %s", vehicleID, cause.Error()),
		&relatedKind, &vehicleID,
	)
}

func (s *ScheduleService) basePriceFor(route *models.Route, vehicle *models.Vehicle) (float64, error) {
	var subtype *models.VehicleSubtype
	if vehicle.VehicleSubtypeID != nil {
		loaded, err := s.vehicleRepo.GetSubtypeByID(*vehicle.VehicleSubtypeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("failed to load vehicle subtype: %w", err)
		}
		subtype = loaded
	}
	return s.pricing.SchedulePrice(route, subtype), nil
}

func (s *ScheduleService) broadcastScheduleStatus(schedule *models.Schedule) {
	event := models.NewStatusUpdateEvent(models.TargetKindSchedule, schedule.ID, string(schedule.Status))
	s.broadcaster.Publish(event.Topic(), event)
}
