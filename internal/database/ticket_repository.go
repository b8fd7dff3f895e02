package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// TicketRepository handles database operations for the tickets table
type TicketRepository struct {
	db DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// CreateTx inserts a new ticket inside a transaction
func (r *TicketRepository) CreateTx(tx *sqlx.Tx, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (
			id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			base_price, discount, final_price, status, passenger_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING booking_time, updated_at
	`

	if ticket.ID == "" {
		ticket.ID = uuid.New().String()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusReserved
	}

	return tx.QueryRow(
		query,
		ticket.ID, ticket.ScheduleID, ticket.SeatID, ticket.SeatNumber,
		ticket.CustomerID, ticket.OfferID, ticket.BasePrice, ticket.Discount,
		ticket.FinalPrice, ticket.Status, ticket.PassengerName,
	).Scan(&ticket.BookingTime, &ticket.UpdatedAt)
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(ticketID string) (*models.Ticket, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			   base_price, discount, final_price, status, passenger_name,
			   booking_time, cancellation_time, cancellation_reason, updated_at
		FROM tickets
		WHERE id = $1
	`

	ticket := &models.Ticket{}
	if err := r.db.Get(ticket, query, ticketID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// GetForUpdateTx retrieves a ticket inside a transaction with a row lock
func (r *TicketRepository) GetForUpdateTx(tx *sqlx.Tx, ticketID string) (*models.Ticket, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			   base_price, discount, final_price, status, passenger_name,
			   booking_time, cancellation_time, cancellation_reason, updated_at
		FROM tickets
		WHERE id = $1
		FOR UPDATE
	`

	ticket := &models.Ticket{}
	if err := tx.Get(ticket, query, ticketID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListByCustomer retrieves all tickets of a customer, newest first
func (r *TicketRepository) ListByCustomer(customerID string) ([]models.Ticket, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			   base_price, discount, final_price, status, passenger_name,
			   booking_time, cancellation_time, cancellation_reason, updated_at
		FROM tickets
		WHERE customer_id = $1
		ORDER BY booking_time DESC
	`

	tickets := []models.Ticket{}
	if err := r.db.Select(&tickets, query, customerID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListBySchedule retrieves all tickets of a schedule
func (r *TicketRepository) ListBySchedule(scheduleID string) ([]models.Ticket, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			   base_price, discount, final_price, status, passenger_name,
			   booking_time, cancellation_time, cancellation_reason, updated_at
		FROM tickets
		WHERE schedule_id = $1
		ORDER BY seat_number
	`

	tickets := []models.Ticket{}
	if err := r.db.Select(&tickets, query, scheduleID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// UpdateStatusTx updates a ticket's status inside a transaction
func (r *TicketRepository) UpdateStatusTx(tx *sqlx.Tx, ticketID string, status models.TicketStatus) error {
	query := `UPDATE tickets SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := tx.Exec(query, status, ticketID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ticket %s not found", ticketID)
	}
	return nil
}

// CancelTx marks a ticket CANCELLED with its reason inside a transaction
func (r *TicketRepository) CancelTx(tx *sqlx.Tx, ticketID string, reason *string) error {
	query := `
		UPDATE tickets
		SET status = $1, cancellation_time = NOW(), cancellation_reason = $2,
			updated_at = NOW()
		WHERE id = $3
	`

	result, err := tx.Exec(query, models.TicketStatusCancelled, reason, ticketID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("ticket %s not found", ticketID)
	}
	return nil
}

// FindReservedDeparting returns RESERVED tickets on schedules departing
// in (now, now+lead], candidates for automatic confirmation.
func (r *TicketRepository) FindReservedDeparting(now time.Time, lead time.Duration) ([]models.Ticket, error) {
	query := `
		SELECT t.id, t.schedule_id, t.seat_id, t.seat_number, t.customer_id,
			   t.offer_id, t.base_price, t.discount, t.final_price, t.status,
			   t.passenger_name, t.booking_time, t.cancellation_time,
			   t.cancellation_reason, t.updated_at
		FROM tickets t
		JOIN schedules s ON s.id = t.schedule_id
		WHERE t.status = 'RESERVED'
		  AND s.status = 'SCHEDULED'
		  AND s.departure_time > $1
		  AND s.departure_time <= $2
		ORDER BY s.departure_time, t.seat_number
	`

	tickets := []models.Ticket{}
	if err := r.db.Select(&tickets, query, now, now.Add(lead)); err != nil {
		return nil, err
	}
	return tickets, nil
}

// FindActiveBySchedule returns the tickets of a schedule that still hold
// seats (RESERVED or CONFIRMED).
func (r *TicketRepository) FindActiveBySchedule(scheduleID string) ([]models.Ticket, error) {
	query := `
		SELECT id, schedule_id, seat_id, seat_number, customer_id, offer_id,
			   base_price, discount, final_price, status, passenger_name,
			   booking_time, cancellation_time, cancellation_reason, updated_at
		FROM tickets
		WHERE schedule_id = $1 AND status IN ('RESERVED', 'CONFIRMED')
		ORDER BY seat_number
	`

	tickets := []models.Ticket{}
	if err := r.db.Select(&tickets, query, scheduleID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// CompleteActiveTx marks every live ticket of a schedule COMPLETED inside a
// transaction. Used when the schedule itself completes.
func (r *TicketRepository) CompleteActiveTx(tx *sqlx.Tx, scheduleID string) (int, error) {
	query := `
		UPDATE tickets
		SET status = $1, updated_at = NOW()
		WHERE schedule_id = $2 AND status IN ('RESERVED', 'CONFIRMED')
	`

	result, err := tx.Exec(query, models.TicketStatusCompleted, scheduleID)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
