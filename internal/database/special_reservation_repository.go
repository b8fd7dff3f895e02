package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// occupyingReservationStatuses are the statuses that block a vehicle's
// calendar. Requested charters hold their window until decided.
const occupyingReservationStatuses = `('REQUESTED', 'APPROVED')`

// reservationColumns is the shared select list for reservation queries
const reservationColumns = `
	id, customer_id, vehicle_id, source, destination, stops, distance_km,
	departure_time, estimated_arrival_time, is_round_trip, return_time,
	duration_days, trip_purpose, passenger_count, season_factor,
	driver_allowance, distance_surcharge, time_surcharge, demand_surcharge,
	discount_amount, base_price, multi_day_surcharge, final_price,
	deposit_amount, deposit_paid_date, balance_amount, is_fully_paid,
	status, rejection_reason, created_at, updated_at`

// SpecialReservationRepository handles database operations for the
// special_reservations table
type SpecialReservationRepository struct {
	db DB
}

// NewSpecialReservationRepository creates a new SpecialReservationRepository
func NewSpecialReservationRepository(db DB) *SpecialReservationRepository {
	return &SpecialReservationRepository{db: db}
}

// CreateTx inserts a new reservation inside a transaction, so creation
// and the conflict check it follows commit together.
func (r *SpecialReservationRepository) CreateTx(tx *sqlx.Tx, res *models.SpecialReservation) error {
	query := `
		INSERT INTO special_reservations (
			id, customer_id, vehicle_id, source, destination, stops,
			distance_km, departure_time, estimated_arrival_time, is_round_trip,
			return_time, duration_days, trip_purpose, passenger_count,
			season_factor, driver_allowance, distance_surcharge, time_surcharge,
			demand_surcharge, discount_amount, base_price, multi_day_surcharge,
			final_price, deposit_amount, balance_amount, is_fully_paid, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		RETURNING created_at, updated_at
	`

	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.Status == "" {
		res.Status = models.ReservationStatusRequested
	}

	return tx.QueryRow(
		query,
		res.ID, res.CustomerID, res.VehicleID, res.Source, res.Destination,
		res.Stops, res.DistanceKM, res.DepartureTime, res.EstimatedArrivalTime,
		res.IsRoundTrip, res.ReturnTime, res.DurationDays, res.TripPurpose,
		res.PassengerCount, res.SeasonFactor, res.DriverAllowance,
		res.DistanceSurcharge, res.TimeSurcharge, res.DemandSurcharge,
		res.DiscountAmount, res.BasePrice, res.MultiDaySurcharge,
		res.FinalPrice, res.DepositAmount, res.BalanceAmount, res.IsFullyPaid,
		res.Status,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByID retrieves a reservation by ID
func (r *SpecialReservationRepository) GetByID(reservationID string) (*models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
		WHERE id = $1
	`

	res := &models.SpecialReservation{}
	if err := r.db.Get(res, query, reservationID); err != nil {
		return nil, err
	}
	return res, nil
}

// GetForUpdateTx retrieves a reservation inside a transaction with a row lock
func (r *SpecialReservationRepository) GetForUpdateTx(tx *sqlx.Tx, reservationID string) (*models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
		WHERE id = $1
		FOR UPDATE
	`

	res := &models.SpecialReservation{}
	if err := tx.Get(res, query, reservationID); err != nil {
		return nil, err
	}
	return res, nil
}

// ListByCustomer retrieves all reservations of a customer, newest first
func (r *SpecialReservationRepository) ListByCustomer(customerID string) ([]models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	reservations := []models.SpecialReservation{}
	if err := r.db.Select(&reservations, query, customerID); err != nil {
		return nil, err
	}
	return reservations, nil
}

// List retrieves reservations, optionally filtered by status
func (r *SpecialReservationRepository) List(status *models.ReservationStatus) ([]models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
	`

	reservations := []models.SpecialReservation{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY created_at DESC`
		if err := r.db.Select(&reservations, query, *status); err != nil {
			return nil, err
		}
		return reservations, nil
	}

	query += ` ORDER BY created_at DESC`
	if err := r.db.Select(&reservations, query); err != nil {
		return nil, err
	}
	return reservations, nil
}

// FindActiveOverlapping returns the occupying reservations of a vehicle
// whose window overlaps [start, end). The end of a round trip is its
// return time; otherwise the estimated arrival. excludeID lets a
// decision skip the reservation being decided.
func (r *SpecialReservationRepository) FindActiveOverlapping(vehicleID string, start, end time.Time, excludeID string) ([]models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
		WHERE vehicle_id = $1
		  AND status IN ` + occupyingReservationStatuses + `
		  AND departure_time < $3
		  AND COALESCE(CASE WHEN is_round_trip THEN return_time END, estimated_arrival_time) > $2
		  AND ($4 = '' OR id != $4)
		ORDER BY departure_time
	`

	reservations := []models.SpecialReservation{}
	if err := r.db.Select(&reservations, query, vehicleID, start, end, excludeID); err != nil {
		return nil, err
	}
	return reservations, nil
}

// CountApprovedTx returns how many approved reservations a vehicle has,
// excluding one reservation, inside a transaction. Used when deciding
// whether releasing a charter frees the vehicle.
func (r *SpecialReservationRepository) CountApprovedTx(tx *sqlx.Tx, vehicleID, excludeID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM special_reservations
		WHERE vehicle_id = $1
		  AND status = 'APPROVED'
		  AND id != $2
	`

	var count int
	if err := tx.Get(&count, query, vehicleID, excludeID); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStatusTx updates a reservation's status and optional rejection
// reason inside a transaction
func (r *SpecialReservationRepository) UpdateStatusTx(tx *sqlx.Tx, reservationID string, status models.ReservationStatus, rejectionReason *string) error {
	query := `
		UPDATE special_reservations
		SET status = $1, rejection_reason = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := tx.Exec(query, status, rejectionReason, reservationID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("reservation %s not found", reservationID)
	}
	return nil
}

// UpdatePaymentTx writes the recomputed payment fields of a reservation
// inside a transaction.
func (r *SpecialReservationRepository) UpdatePaymentTx(tx *sqlx.Tx, res *models.SpecialReservation) error {
	query := `
		UPDATE special_reservations
		SET deposit_amount = $1, deposit_paid_date = $2, balance_amount = $3,
			is_fully_paid = $4, updated_at = NOW()
		WHERE id = $5
	`

	result, err := tx.Exec(
		query,
		res.DepositAmount, res.DepositPaidDate, res.BalanceAmount,
		res.IsFullyPaid, res.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("reservation %s not found", res.ID)
	}
	return nil
}

// FindOverdue returns approved reservations past their end time,
// candidates for the completion sweep.
func (r *SpecialReservationRepository) FindOverdue(now time.Time) ([]models.SpecialReservation, error) {
	query := `SELECT` + reservationColumns + `
		FROM special_reservations
		WHERE status = 'APPROVED'
		  AND COALESCE(CASE WHEN is_round_trip THEN return_time END, estimated_arrival_time) <= $1
		ORDER BY departure_time
	`

	reservations := []models.SpecialReservation{}
	if err := r.db.Select(&reservations, query, now); err != nil {
		return nil, err
	}
	return reservations, nil
}
