package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

func newVehicleServiceForTest(db *sql.DB) *VehicleService {
	mockDB := newMockDatabase(db)
	seatService := NewSeatService(
		database.NewSeatRepository(mockDB),
		database.NewSeatAvailabilityRepository(mockDB),
		database.NewVehicleRepository(mockDB),
		testLogger(),
	)
	notifications := NewNotificationService(
		database.NewNotificationRepository(mockDB),
		database.NewCustomerRepository(mockDB),
		testLogger(),
	)
	return NewVehicleService(
		database.NewVehicleRepository(mockDB),
		seatService,
		notifications,
		NopBroadcaster{},
		testLogger(),
	)
}

func TestListVehiclesStatusFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newVehicleServiceForTest(db)

	t.Run("Rejects Unknown Status", func(t *testing.T) {
		_, err := svc.ListVehicles("PARKED")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Filters By Status", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE status = \$1`).
			WithArgs(models.VehicleStatusMaintenance).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "registration_number", "row_count", "has_back_row",
				"vehicle_subtype_id", "status", "created_at", "updated_at",
			}).AddRow(uuid.New().String(), "Himal Express 2", "BA-2-KHA-7310",
				10, true, nil, "MAINTENANCE", now, now))

		vehicles, err := svc.ListVehicles("MAINTENANCE")
		require.NoError(t, err)
		require.Len(t, vehicles, 1)
		assert.Equal(t, models.VehicleStatusMaintenance, vehicles[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Status Lists Everything", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vehicles ORDER BY registration_number`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "registration_number", "row_count", "has_back_row",
				"vehicle_subtype_id", "status", "created_at", "updated_at",
			}))

		vehicles, err := svc.ListVehicles("")
		require.NoError(t, err)
		assert.Empty(t, vehicles)
	})
}
