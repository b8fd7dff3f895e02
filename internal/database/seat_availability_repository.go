package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// SeatAvailabilityRepository handles database operations for the
// seat_availability table, which tracks per-schedule seat state.
type SeatAvailabilityRepository struct {
	db DB
}

// NewSeatAvailabilityRepository creates a new SeatAvailabilityRepository
func NewSeatAvailabilityRepository(db DB) *SeatAvailabilityRepository {
	return &SeatAvailabilityRepository{db: db}
}

// ReplaceForSchedule drops any existing rows of a schedule and creates a
// fresh AVAILABLE row per seat. Used on schedule creation and when the
// schedule's vehicle changes.
func (r *SeatAvailabilityRepository) ReplaceForSchedule(scheduleID string, seats []models.Seat) error {
	if _, err := r.db.Exec(`DELETE FROM seat_availability WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}

	query := `
		INSERT INTO seat_availability (id, schedule_id, seat_id, seat_number, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i := range seats {
		_, err := r.db.Exec(
			query,
			uuid.New().String(), scheduleID, seats[i].ID, seats[i].Number(),
			models.SeatAvailable,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReplaceForScheduleTx is ReplaceForSchedule inside a transaction, so the
// seat rows commit together with the schedule they belong to.
func (r *SeatAvailabilityRepository) ReplaceForScheduleTx(tx *sqlx.Tx, scheduleID string, seats []models.Seat) error {
	if _, err := tx.Exec(`DELETE FROM seat_availability WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}

	query := `
		INSERT INTO seat_availability (id, schedule_id, seat_id, seat_number, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	for i := range seats {
		_, err := tx.Exec(
			query,
			uuid.New().String(), scheduleID, seats[i].ID, seats[i].Number(),
			models.SeatAvailable,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListBySchedule retrieves all seat availability rows of a schedule
func (r *SeatAvailabilityRepository) ListBySchedule(scheduleID string) ([]models.SeatAvailability, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, status, ticket_id, updated_at
		FROM seat_availability
		WHERE schedule_id = $1
		ORDER BY seat_number
	`

	rows := []models.SeatAvailability{}
	if err := r.db.Select(&rows, query, scheduleID); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByScheduleTx retrieves all seat availability rows of a schedule
// inside a transaction, locking them against concurrent transitions.
func (r *SeatAvailabilityRepository) ListByScheduleTx(tx *sqlx.Tx, scheduleID string) ([]models.SeatAvailability, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, status, ticket_id, updated_at
		FROM seat_availability
		WHERE schedule_id = $1
		ORDER BY seat_number
		FOR UPDATE
	`

	rows := []models.SeatAvailability{}
	if err := tx.Select(&rows, query, scheduleID); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByStatus returns the number of seats of a schedule in the given status
func (r *SeatAvailabilityRepository) CountByStatus(scheduleID string, status models.SeatAvailabilityStatus) (int, error) {
	query := `SELECT COUNT(*) FROM seat_availability WHERE schedule_id = $1 AND status = $2`

	var count int
	if err := r.db.Get(&count, query, scheduleID, status); err != nil {
		return 0, err
	}
	return count, nil
}

// GetBySeat retrieves one seat's availability row for a schedule
func (r *SeatAvailabilityRepository) GetBySeat(scheduleID, seatID string) (*models.SeatAvailability, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, status, ticket_id, updated_at
		FROM seat_availability
		WHERE schedule_id = $1 AND seat_id = $2
	`

	sa := &models.SeatAvailability{}
	if err := r.db.Get(sa, query, scheduleID, seatID); err != nil {
		return nil, err
	}
	return sa, nil
}

// GetForUpdateTx retrieves one seat's availability row inside a
// transaction with a row lock, serializing concurrent bookings.
func (r *SeatAvailabilityRepository) GetForUpdateTx(tx *sqlx.Tx, scheduleID, seatID string) (*models.SeatAvailability, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, status, ticket_id, updated_at
		FROM seat_availability
		WHERE schedule_id = $1 AND seat_id = $2
		FOR UPDATE
	`

	sa := &models.SeatAvailability{}
	if err := tx.Get(sa, query, scheduleID, seatID); err != nil {
		return nil, err
	}
	return sa, nil
}

// UpdateStatusTx sets a seat's status and ticket reference inside a transaction
func (r *SeatAvailabilityRepository) UpdateStatusTx(tx *sqlx.Tx, id string, status models.SeatAvailabilityStatus, ticketID *string) error {
	query := `
		UPDATE seat_availability
		SET status = $1, ticket_id = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := tx.Exec(query, status, ticketID, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("seat availability %s not found", id)
	}
	return nil
}

// ResetForScheduleTx returns every seat of a schedule to AVAILABLE and
// clears ticket references, used when a trip completes.
func (r *SeatAvailabilityRepository) ResetForScheduleTx(tx *sqlx.Tx, scheduleID string) (int, error) {
	query := `
		UPDATE seat_availability
		SET status = $1, ticket_id = NULL, updated_at = NOW()
		WHERE schedule_id = $2 AND status != $1
	`

	result, err := tx.Exec(query, models.SeatAvailable, scheduleID)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
