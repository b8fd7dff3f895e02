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

func newScheduleServiceForTest(db *sql.DB) *ScheduleService {
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
	return NewScheduleService(
		mockDB,
		database.NewScheduleRepository(mockDB),
		database.NewRouteRepository(mockDB),
		database.NewVehicleRepository(mockDB),
		database.NewTicketRepository(mockDB),
		newAvailabilityService(db),
		seatService,
		NewPricingService(NewDefaultSurchargePolicy(testPricingConfig()), testPricingConfig(), testLogger()),
		notifications,
		NopBroadcaster{},
		testLogger(),
	)
}

func TestListSchedulesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newScheduleServiceForTest(db)
	routeID := uuid.New().String()

	t.Run("Rejects Unknown Status", func(t *testing.T) {
		_, err := svc.ListSchedules(routeID, "FINISHED")
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Passes Route And Status Through", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE route_id = \$1 AND status = \$2`).
			WithArgs(routeID, models.ScheduleStatusScheduled).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "vehicle_id", "departure_time", "arrival_time",
				"base_price", "status", "created_at", "updated_at",
			}))

		schedules, err := svc.ListSchedules(routeID, "SCHEDULED")
		require.NoError(t, err)
		assert.Empty(t, schedules)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Filters Lists Everything", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM schedules ORDER BY departure_time`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "vehicle_id", "departure_time", "arrival_time",
				"base_price", "status", "created_at", "updated_at",
			}).AddRow(uuid.New().String(), routeID, uuid.New().String(),
				now, now.Add(4*time.Hour), 1500.0, "SCHEDULED", now, now))

		schedules, err := svc.ListSchedules("", "")
		require.NoError(t, err)
		assert.Len(t, schedules, 1)
	})
}

func TestUpdateScheduleRejectsTerminalStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newScheduleServiceForTest(db)

	// marking a trip finished through an edit would skip the ticket and
	// seat release that completion performs
	for _, status := range []string{"COMPLETED", "CANCELLED"} {
		t.Run(status, func(t *testing.T) {
			_, err := svc.UpdateSchedule(uuid.New().String(),
				&models.UpdateScheduleRequest{Status: &status})
			assert.True(t, domain.IsValidation(err))
		})
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
