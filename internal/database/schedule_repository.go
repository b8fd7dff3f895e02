package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// activeScheduleStatuses are the statuses that still occupy a vehicle
const activeScheduleStatuses = `('SCHEDULED', 'DELAYED', 'IN_PROGRESS')`

// ScheduleRepository handles database operations for the schedules table
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new schedule
func (r *ScheduleRepository) Create(schedule *models.Schedule) error {
	query := `
		INSERT INTO schedules (
			id, route_id, vehicle_id, departure_time, arrival_time, base_price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusScheduled
	}

	return r.db.QueryRow(
		query,
		schedule.ID, schedule.RouteID, schedule.VehicleID,
		schedule.DepartureTime, schedule.ArrivalTime, schedule.BasePrice, schedule.Status,
	).Scan(&schedule.CreatedAt, &schedule.UpdatedAt)
}

// CreateTx inserts a new schedule inside a transaction, so creation and
// the conflict check it follows commit together.
func (r *ScheduleRepository) CreateTx(tx *sqlx.Tx, schedule *models.Schedule) error {
	query := `
		INSERT INTO schedules (
			id, route_id, vehicle_id, departure_time, arrival_time, base_price, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if schedule.ID == "" {
		schedule.ID = uuid.New().String()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusScheduled
	}

	return tx.QueryRow(
		query,
		schedule.ID, schedule.RouteID, schedule.VehicleID,
		schedule.DepartureTime, schedule.ArrivalTime, schedule.BasePrice, schedule.Status,
	).Scan(&schedule.CreatedAt, &schedule.UpdatedAt)
}

// GetByID retrieves a schedule by ID
func (r *ScheduleRepository) GetByID(scheduleID string) (*models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`

	schedule := &models.Schedule{}
	if err := r.db.Get(schedule, query, scheduleID); err != nil {
		return nil, err
	}
	return schedule, nil
}

// GetForUpdateTx retrieves a schedule inside a transaction with a row lock
func (r *ScheduleRepository) GetForUpdateTx(tx *sqlx.Tx, scheduleID string) (*models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
		WHERE id = $1
		FOR UPDATE
	`

	schedule := &models.Schedule{}
	if err := tx.Get(schedule, query, scheduleID); err != nil {
		return nil, err
	}
	return schedule, nil
}

// List retrieves schedules, optionally filtered by route and status
func (r *ScheduleRepository) List(routeID string, status *models.ScheduleStatus) ([]models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
	`

	conditions := []string{}
	args := []interface{}{}
	if routeID != "" {
		args = append(args, routeID)
		conditions = append(conditions, fmt.Sprintf("route_id = $%d", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY departure_time`

	schedules := []models.Schedule{}
	if err := r.db.Select(&schedules, query, args...); err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindActiveOverlapping returns the active schedules of a vehicle whose
// window overlaps [start, end). Touching endpoints do not overlap.
// excludeID lets an edit skip the schedule being edited.
func (r *ScheduleRepository) FindActiveOverlapping(vehicleID string, start, end time.Time, excludeID string) ([]models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
		WHERE vehicle_id = $1
		  AND status IN ` + activeScheduleStatuses + `
		  AND departure_time < $3
		  AND arrival_time > $2
		  AND ($4 = '' OR id != $4)
		ORDER BY departure_time
	`

	schedules := []models.Schedule{}
	if err := r.db.Select(&schedules, query, vehicleID, start, end, excludeID); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Update rewrites a schedule's assignment, window and derived price
func (r *ScheduleRepository) Update(schedule *models.Schedule) error {
	query := `
		UPDATE schedules
		SET vehicle_id = $1, departure_time = $2, arrival_time = $3,
			base_price = $4, status = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.db.Exec(
		query,
		schedule.VehicleID, schedule.DepartureTime, schedule.ArrivalTime,
		schedule.BasePrice, schedule.Status, schedule.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", schedule.ID)
	}
	return nil
}

// UpdateTx persists schedule changes inside a transaction
func (r *ScheduleRepository) UpdateTx(tx *sqlx.Tx, schedule *models.Schedule) error {
	query := `
		UPDATE schedules
		SET vehicle_id = $1, departure_time = $2, arrival_time = $3,
			base_price = $4, status = $5, updated_at = NOW()
		WHERE id = $6
	`

	result, err := tx.Exec(
		query,
		schedule.VehicleID, schedule.DepartureTime, schedule.ArrivalTime,
		schedule.BasePrice, schedule.Status, schedule.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", schedule.ID)
	}
	return nil
}

// UpdateStatus updates a schedule's status
func (r *ScheduleRepository) UpdateStatus(scheduleID string, status models.ScheduleStatus) error {
	query := `UPDATE schedules SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(query, status, scheduleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", scheduleID)
	}
	return nil
}

// UpdateStatusTx updates a schedule's status inside a transaction
func (r *ScheduleRepository) UpdateStatusTx(tx *sqlx.Tx, scheduleID string, status models.ScheduleStatus) error {
	query := `UPDATE schedules SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := tx.Exec(query, status, scheduleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("schedule %s not found", scheduleID)
	}
	return nil
}

// FindOverdue returns active schedules whose arrival time has passed,
// candidates for the completion sweep.
func (r *ScheduleRepository) FindOverdue(now time.Time) ([]models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
		WHERE status IN ` + activeScheduleStatuses + `
		  AND arrival_time <= $1
		ORDER BY arrival_time
	`

	schedules := []models.Schedule{}
	if err := r.db.Select(&schedules, query, now); err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindDepartingWithin returns bookable schedules departing in (now, now+lead],
// used by the pre-departure confirmation sweep.
func (r *ScheduleRepository) FindDepartingWithin(now time.Time, lead time.Duration) ([]models.Schedule, error) {
	query := `
		SELECT id, route_id, vehicle_id, departure_time, arrival_time,
			   base_price, status, created_at, updated_at
		FROM schedules
		WHERE status = 'SCHEDULED'
		  AND departure_time > $1
		  AND departure_time <= $2
		ORDER BY departure_time
	`

	schedules := []models.Schedule{}
	if err := r.db.Select(&schedules, query, now, now.Add(lead)); err != nil {
		return nil, err
	}
	return schedules, nil
}
