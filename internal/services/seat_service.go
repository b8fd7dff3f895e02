package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

const backRowSeats = 5

// SeatService owns the seat grid of vehicles and the per-schedule seat
// state machine.
type SeatService struct {
	seatRepo      *database.SeatRepository
	seatAvailRepo *database.SeatAvailabilityRepository
	vehicleRepo   *database.VehicleRepository
	logger        *logrus.Logger
}

// NewSeatService creates a new SeatService
func NewSeatService(
	seatRepo *database.SeatRepository,
	seatAvailRepo *database.SeatAvailabilityRepository,
	vehicleRepo *database.VehicleRepository,
	logger *logrus.Logger,
) *SeatService {
	return &SeatService{
		seatRepo:      seatRepo,
		seatAvailRepo: seatAvailRepo,
		vehicleRepo:   vehicleRepo,
		logger:        logger,
	}
}

// BuildSeatGrid lays out the physical seats of a vehicle: each row gets
// a window seat (group A) and an aisle seat (group B), plus a five-seat
// rear bench when the vehicle has one.
func (s *SeatService) BuildSeatGrid(vehicle *models.Vehicle) []models.Seat {
	seats := make([]models.Seat, 0, vehicle.Capacity())

	for row := 1; row <= vehicle.RowCount; row++ {
		seats = append(seats, models.Seat{
			VehicleID: vehicle.ID,
			RowNumber: row,
			SeatGroup: models.SeatGroupA,
			SeatType:  models.SeatTypeWindow,
		})
		seats = append(seats, models.Seat{
			VehicleID: vehicle.ID,
			RowNumber: row,
			SeatGroup: models.SeatGroupB,
			SeatType:  models.SeatTypeAisle,
		})
	}

	if vehicle.HasBackRow {
		backRow := vehicle.RowCount + 1
		for i := 1; i <= backRowSeats; i++ {
			position := i
			seats = append(seats, models.Seat{
				VehicleID: vehicle.ID,
				RowNumber: backRow,
				SeatGroup: models.SeatGroupBack,
				Position:  &position,
				SeatType:  models.SeatTypeBack,
			})
		}
	}

	return seats
}

// EnsureSeats creates the vehicle's seat grid if it does not exist yet
// and returns it.
func (s *SeatService) EnsureSeats(vehicle *models.Vehicle) ([]models.Seat, error) {
	seats, err := s.seatRepo.ListByVehicle(vehicle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats: %w", err)
	}
	if len(seats) > 0 {
		return seats, nil
	}

	grid := s.BuildSeatGrid(vehicle)
	if err := s.seatRepo.CreateBulk(grid); err != nil {
		return nil, fmt.Errorf("failed to create seat grid: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"vehicle_id": vehicle.ID,
		"seats":      len(grid),
	}).Info("Created seat grid")
	return grid, nil
}

// InitializeForSchedule rebuilds the schedule's seat availability rows,
// one AVAILABLE row per vehicle seat. Called on schedule creation and
// when the schedule's vehicle changes.
func (s *SeatService) InitializeForSchedule(schedule *models.Schedule) error {
	vehicle, err := s.vehicleRepo.GetByID(schedule.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("vehicle", schedule.VehicleID)
		}
		return fmt.Errorf("failed to load vehicle: %w", err)
	}

	seats, err := s.EnsureSeats(vehicle)
	if err != nil {
		return err
	}

	if err := s.seatAvailRepo.ReplaceForSchedule(schedule.ID, seats); err != nil {
		return fmt.Errorf("failed to initialize seat availability: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"vehicle_id":  vehicle.ID,
		"seats":       len(seats),
	}).Info("Initialized seat availability")
	return nil
}

// InitializeForScheduleTx is InitializeForSchedule inside the caller's
// transaction, so new schedules commit together with their seat rows.
func (s *SeatService) InitializeForScheduleTx(tx *sqlx.Tx, schedule *models.Schedule) error {
	vehicle, err := s.vehicleRepo.GetByID(schedule.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFoundError("vehicle", schedule.VehicleID)
		}
		return fmt.Errorf("failed to load vehicle: %w", err)
	}

	seats, err := s.EnsureSeats(vehicle)
	if err != nil {
		return err
	}

	if err := s.seatAvailRepo.ReplaceForScheduleTx(tx, schedule.ID, seats); err != nil {
		return fmt.Errorf("failed to initialize seat availability: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"schedule_id": schedule.ID,
		"vehicle_id":  vehicle.ID,
		"seats":       len(seats),
	}).Info("Initialized seat availability")
	return nil
}

// SeatMap returns the availability grid of a schedule
func (s *SeatService) SeatMap(scheduleID string) (*models.SeatMap, error) {
	rows, err := s.seatAvailRepo.ListBySchedule(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seat availability: %w", err)
	}

	available := 0
	for i := range rows {
		if rows[i].Status == models.SeatAvailable {
			available++
		}
	}

	return &models.SeatMap{
		ScheduleID: scheduleID,
		Total:      len(rows),
		Available:  available,
		Seats:      rows,
	}, nil
}

// ApplyTicketTx moves a ticket's seat to the state its status implies,
// inside the caller's transaction. It returns the seat_update event to
// broadcast after commit, or nil when nothing changed.
//
// A missing availability row for a live ticket is an integrity anomaly:
// it is logged and the ticket operation proceeds. UNAVAILABLE is an
// admin override and is never exited by ticket activity.
func (s *SeatService) ApplyTicketTx(tx *sqlx.Tx, ticket *models.Ticket) (*models.SeatUpdateEvent, error) {
	target := models.SeatStatusFor(ticket.Status)

	row, err := s.seatAvailRepo.GetForUpdateTx(tx, ticket.ScheduleID, ticket.SeatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			anomaly := domain.NewIntegrityAnomaly(
				fmt.Sprintf("no seat availability for schedule %s seat %s", ticket.ScheduleID, ticket.SeatID), nil)
			s.logger.WithFields(logrus.Fields{
				"schedule_id": ticket.ScheduleID,
				"seat_id":     ticket.SeatID,
				"ticket_id":   ticket.ID,
			}).Error(anomaly.Error())
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock seat availability: %w", err)
	}

	if row.Status == target {
		return nil, nil
	}
	if row.Status == models.SeatUnavailable {
		s.logger.WithFields(logrus.Fields{
			"schedule_id": ticket.ScheduleID,
			"seat_id":     ticket.SeatID,
		}).Warn("Skipping ticket transition on UNAVAILABLE seat")
		return nil, nil
	}

	var ticketID *string
	if target == models.SeatReserved || target == models.SeatBooked {
		ticketID = &ticket.ID
	}

	if err := s.seatAvailRepo.UpdateStatusTx(tx, row.ID, target, ticketID); err != nil {
		return nil, fmt.Errorf("failed to update seat availability: %w", err)
	}

	event := models.NewSeatUpdateEvent(ticket.ScheduleID, ticket.SeatID, target)
	return &event, nil
}

// ResetScheduleTx returns every seat of a schedule to AVAILABLE inside
// the caller's transaction, returning one event per seat that actually
// changed. UNAVAILABLE admin overrides are cleared too: a completed trip
// leaves no per-schedule state behind.
func (s *SeatService) ResetScheduleTx(tx *sqlx.Tx, scheduleID string) ([]models.SeatUpdateEvent, error) {
	rows, err := s.seatAvailRepo.ListByScheduleTx(tx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seat availability: %w", err)
	}

	events := make([]models.SeatUpdateEvent, 0)
	for i := range rows {
		if rows[i].Status == models.SeatAvailable {
			continue
		}
		events = append(events, models.NewSeatUpdateEvent(scheduleID, rows[i].SeatID, models.SeatAvailable))
	}

	if _, err := s.seatAvailRepo.ResetForScheduleTx(tx, scheduleID); err != nil {
		return nil, fmt.Errorf("failed to reset seat availability: %w", err)
	}
	return events, nil
}
