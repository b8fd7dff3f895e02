package database

import (
	"github.com/google/uuid"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// SeatRepository handles database operations for the seats table
type SeatRepository struct {
	db DB
}

// NewSeatRepository creates a new SeatRepository
func NewSeatRepository(db DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// CreateBulk inserts the full seat grid of a vehicle. Existing seats at
// the same position are left untouched so re-running initialization is
// safe.
func (r *SeatRepository) CreateBulk(seats []models.Seat) error {
	query := `
		INSERT INTO seats (id, vehicle_id, row_number, seat_group, position, seat_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (vehicle_id, row_number, seat_group, position) DO NOTHING
	`

	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = uuid.New().String()
		}
		_, err := r.db.Exec(
			query,
			seats[i].ID, seats[i].VehicleID, seats[i].RowNumber,
			seats[i].SeatGroup, seats[i].Position, seats[i].SeatType,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByVehicle retrieves all seats of a vehicle in walking order: row
// seats front to back, then the rear bench.
func (r *SeatRepository) ListByVehicle(vehicleID string) ([]models.Seat, error) {
	query := `
		SELECT id, vehicle_id, row_number, seat_group, position, seat_type, created_at
		FROM seats
		WHERE vehicle_id = $1
		ORDER BY seat_group = 'BACK', row_number, seat_group, position
	`

	seats := []models.Seat{}
	if err := r.db.Select(&seats, query, vehicleID); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetByID retrieves a seat by ID
func (r *SeatRepository) GetByID(seatID string) (*models.Seat, error) {
	query := `
		SELECT id, vehicle_id, row_number, seat_group, position, seat_type, created_at
		FROM seats
		WHERE id = $1
	`

	seat := &models.Seat{}
	if err := r.db.Get(seat, query, seatID); err != nil {
		return nil, err
	}
	return seat, nil
}
