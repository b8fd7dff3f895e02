package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

func TestCreateVehicle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVehicleRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		vehicle := &models.Vehicle{
			Name:               "Himal Express 1",
			RegistrationNumber: "BA-2-KHA-4521",
			RowCount:           10,
			HasBackRow:         true,
		}

		mock.ExpectQuery(`INSERT INTO vehicles`).
			WithArgs(sqlmock.AnyArg(), vehicle.Name, vehicle.RegistrationNumber,
				vehicle.RowCount, vehicle.HasBackRow, nil, models.VehicleStatusActive).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(now, now))

		err := repo.Create(vehicle)
		require.NoError(t, err)
		assert.NotEmpty(t, vehicle.ID)
		assert.Equal(t, models.VehicleStatusActive, vehicle.Status)
		assert.Equal(t, now, vehicle.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Registration", func(t *testing.T) {
		vehicle := &models.Vehicle{
			Name:               "Himal Express 1",
			RegistrationNumber: "BA-2-KHA-4521",
			RowCount:           10,
		}

		mock.ExpectQuery(`INSERT INTO vehicles`).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		err := repo.Create(vehicle)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetVehicleByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVehicleRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		vehicleID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id`).
			WithArgs(vehicleID).
			WillReturnRows(vehicleRows().AddRow(
				vehicleID, "Himal Express 1", "BA-2-KHA-4521", 10, true,
				nil, "ACTIVE", now, now,
			))

		vehicle, err := repo.GetByID(vehicleID)
		require.NoError(t, err)
		assert.Equal(t, vehicleID, vehicle.ID)
		assert.Equal(t, models.VehicleStatusActive, vehicle.Status)
		assert.Equal(t, 25, vehicle.Capacity())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		vehicleID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id`).
			WithArgs(vehicleID).
			WillReturnError(sql.ErrNoRows)

		vehicle, err := repo.GetByID(vehicleID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, vehicle)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListOperationalVehicles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVehicleRepository(newMockDatabase(db))

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE status NOT IN`).
		WithArgs(20).
		WillReturnRows(vehicleRows().AddRow(
			uuid.New().String(), "Himal Express 2", "BA-3-PA-1177", 12, false,
			nil, "ACTIVE", now, now,
		))

	vehicles, err := repo.ListOperational(20)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, 24, vehicles[0].Capacity())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVehicleStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVehicleRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		vehicleID := uuid.New().String()

		mock.ExpectExec(`UPDATE vehicles SET status`).
			WithArgs(models.VehicleStatusMaintenance, vehicleID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(vehicleID, models.VehicleStatusMaintenance)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		vehicleID := uuid.New().String()

		mock.ExpectExec(`UPDATE vehicles SET status`).
			WithArgs(models.VehicleStatusInactive, vehicleID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(vehicleID, models.VehicleStatusInactive)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func vehicleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "registration_number", "row_count", "has_back_row",
		"vehicle_subtype_id", "status", "created_at", "updated_at",
	})
}

// mockDatabase adapts a sqlmock connection to the DB interface
type mockDatabase struct {
	db *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Beginx() (*sqlx.Tx, error) {
	return m.db.Beginx()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
