package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// VehicleRepository handles database operations for the vehicles,
// vehicle_types and vehicle_subtypes tables
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle
func (r *VehicleRepository) Create(vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			id, name, registration_number, row_count, has_back_row,
			vehicle_subtype_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	if vehicle.ID == "" {
		vehicle.ID = uuid.New().String()
	}
	if vehicle.Status == "" {
		vehicle.Status = models.VehicleStatusActive
	}

	return r.db.QueryRow(
		query,
		vehicle.ID, vehicle.Name, vehicle.RegistrationNumber,
		vehicle.RowCount, vehicle.HasBackRow, vehicle.VehicleSubtypeID,
		vehicle.Status,
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)
}

// GetByID retrieves a vehicle by ID
func (r *VehicleRepository) GetByID(vehicleID string) (*models.Vehicle, error) {
	query := `
		SELECT id, name, registration_number, row_count, has_back_row,
			   vehicle_subtype_id, status, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`

	vehicle := &models.Vehicle{}
	if err := r.db.Get(vehicle, query, vehicleID); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// List retrieves all vehicles, optionally filtered by status
func (r *VehicleRepository) List(status *models.VehicleStatus) ([]models.Vehicle, error) {
	query := `
		SELECT id, name, registration_number, row_count, has_back_row,
			   vehicle_subtype_id, status, created_at, updated_at
		FROM vehicles
	`

	vehicles := []models.Vehicle{}
	if status != nil {
		query += ` WHERE status = $1 ORDER BY registration_number`
		if err := r.db.Select(&vehicles, query, *status); err != nil {
			return nil, err
		}
		return vehicles, nil
	}

	query += ` ORDER BY registration_number`
	if err := r.db.Select(&vehicles, query); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// ListOperational retrieves vehicles able to take commitments, with at
// least minCapacity seats when minCapacity > 0.
func (r *VehicleRepository) ListOperational(minCapacity int) ([]models.Vehicle, error) {
	query := `
		SELECT id, name, registration_number, row_count, has_back_row,
			   vehicle_subtype_id, status, created_at, updated_at
		FROM vehicles
		WHERE status NOT IN ('MAINTENANCE', 'INACTIVE')
		  AND (row_count * 2 + CASE WHEN has_back_row THEN 5 ELSE 0 END) >= $1
		ORDER BY registration_number
	`

	vehicles := []models.Vehicle{}
	if err := r.db.Select(&vehicles, query, minCapacity); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// UpdateStatus updates a vehicle's status
func (r *VehicleRepository) UpdateStatus(vehicleID string, status models.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(query, status, vehicleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("vehicle %s not found", vehicleID)
	}
	return nil
}

// GetForUpdateTx retrieves a vehicle inside a transaction with a row
// lock, serializing conflict checks against the same vehicle.
func (r *VehicleRepository) GetForUpdateTx(tx *sqlx.Tx, vehicleID string) (*models.Vehicle, error) {
	query := `
		SELECT id, name, registration_number, row_count, has_back_row,
			   vehicle_subtype_id, status, created_at, updated_at
		FROM vehicles
		WHERE id = $1
		FOR UPDATE
	`

	vehicle := &models.Vehicle{}
	if err := tx.Get(vehicle, query, vehicleID); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// UpdateStatusTx updates a vehicle's status inside a transaction
func (r *VehicleRepository) UpdateStatusTx(tx *sqlx.Tx, vehicleID string, status models.VehicleStatus) error {
	query := `UPDATE vehicles SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := tx.Exec(query, status, vehicleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("vehicle %s not found", vehicleID)
	}
	return nil
}

// CreateType inserts a new vehicle type
func (r *VehicleRepository) CreateType(vt *models.VehicleType) error {
	query := `
		INSERT INTO vehicle_types (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	if vt.ID == "" {
		vt.ID = uuid.New().String()
	}

	return r.db.QueryRow(query, vt.ID, vt.Name, vt.Description).
		Scan(&vt.CreatedAt, &vt.UpdatedAt)
}

// CreateSubtype inserts a new vehicle subtype
func (r *VehicleRepository) CreateSubtype(vs *models.VehicleSubtype) error {
	query := `
		INSERT INTO vehicle_subtypes (
			id, vehicle_type_id, name, subtype_code, rate_per_km, min_price,
			has_ac, has_wifi, has_entertainment, has_charging_ports,
			has_reclining_seats
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	if vs.ID == "" {
		vs.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		vs.ID, vs.VehicleTypeID, vs.Name, vs.SubtypeCode, vs.RatePerKM,
		vs.MinPrice, vs.HasAC, vs.HasWifi, vs.HasEntertainment,
		vs.HasChargingPorts, vs.HasRecliningSeats,
	).Scan(&vs.CreatedAt, &vs.UpdatedAt)
}

// GetSubtypeByID retrieves a vehicle subtype by ID
func (r *VehicleRepository) GetSubtypeByID(subtypeID string) (*models.VehicleSubtype, error) {
	query := `
		SELECT id, vehicle_type_id, name, subtype_code, rate_per_km, min_price,
			   has_ac, has_wifi, has_entertainment, has_charging_ports,
			   has_reclining_seats, created_at, updated_at
		FROM vehicle_subtypes
		WHERE id = $1
	`

	subtype := &models.VehicleSubtype{}
	if err := r.db.Get(subtype, query, subtypeID); err != nil {
		return nil, err
	}
	return subtype, nil
}

// ListSubtypes retrieves all vehicle subtypes
func (r *VehicleRepository) ListSubtypes() ([]models.VehicleSubtype, error) {
	query := `
		SELECT id, vehicle_type_id, name, subtype_code, rate_per_km, min_price,
			   has_ac, has_wifi, has_entertainment, has_charging_ports,
			   has_reclining_seats, created_at, updated_at
		FROM vehicle_subtypes
		ORDER BY name
	`

	subtypes := []models.VehicleSubtype{}
	if err := r.db.Select(&subtypes, query); err != nil {
		return nil, err
	}
	return subtypes, nil
}
