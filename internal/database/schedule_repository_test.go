package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

func TestCreateScheduleTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := newMockDatabase(db)
	repo := NewScheduleRepository(mockDB)

	now := time.Now()
	schedule := &models.Schedule{
		RouteID:       uuid.New().String(),
		VehicleID:     uuid.New().String(),
		DepartureTime: now.Add(24 * time.Hour),
		ArrivalTime:   now.Add(30 * time.Hour),
		BasePrice:     1500,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO schedules`).
		WithArgs(sqlmock.AnyArg(), schedule.RouteID, schedule.VehicleID,
			schedule.DepartureTime, schedule.ArrivalTime, schedule.BasePrice,
			models.ScheduleStatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(now, now))
	mock.ExpectCommit()

	tx, err := mockDB.Beginx()
	require.NoError(t, err)

	err = repo.CreateTx(tx, schedule)
	require.NoError(t, err)
	assert.NotEmpty(t, schedule.ID)
	assert.Equal(t, models.ScheduleStatusScheduled, schedule.Status)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveOverlapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewScheduleRepository(newMockDatabase(db))

	vehicleID := uuid.New().String()
	now := time.Now()
	start := now.Add(2 * time.Hour)
	end := now.Add(4 * time.Hour)

	t.Run("Conflict Found", func(t *testing.T) {
		scheduleID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE vehicle_id`).
			WithArgs(vehicleID, start, end, "").
			WillReturnRows(scheduleRows().AddRow(
				scheduleID, uuid.New().String(), vehicleID,
				now.Add(time.Hour), now.Add(3*time.Hour), 1200.0, "SCHEDULED",
				now, now,
			))

		schedules, err := repo.FindActiveOverlapping(vehicleID, start, end, "")
		require.NoError(t, err)
		require.Len(t, schedules, 1)
		assert.Equal(t, scheduleID, schedules[0].ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Conflict", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE vehicle_id`).
			WithArgs(vehicleID, start, end, "").
			WillReturnRows(scheduleRows())

		schedules, err := repo.FindActiveOverlapping(vehicleID, start, end, "")
		require.NoError(t, err)
		assert.Empty(t, schedules)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Excludes Edited Schedule", func(t *testing.T) {
		excludeID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE vehicle_id`).
			WithArgs(vehicleID, start, end, excludeID).
			WillReturnRows(scheduleRows())

		schedules, err := repo.FindActiveOverlapping(vehicleID, start, end, excludeID)
		require.NoError(t, err)
		assert.Empty(t, schedules)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestScheduleUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewScheduleRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		scheduleID := uuid.New().String()

		mock.ExpectExec(`UPDATE schedules SET status`).
			WithArgs(models.ScheduleStatusDelayed, scheduleID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(scheduleID, models.ScheduleStatusDelayed)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		scheduleID := uuid.New().String()

		mock.ExpectExec(`UPDATE schedules SET status`).
			WithArgs(models.ScheduleStatusCancelled, scheduleID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(scheduleID, models.ScheduleStatusCancelled)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListSchedules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewScheduleRepository(newMockDatabase(db))

	routeID := uuid.New().String()
	now := time.Now()

	t.Run("No Filter", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM schedules ORDER BY departure_time`).
			WillReturnRows(scheduleRows().
				AddRow(uuid.New().String(), routeID, uuid.New().String(),
					now, now.Add(4*time.Hour), 1500.0, "SCHEDULED", now, now))

		schedules, err := repo.List("", nil)
		require.NoError(t, err)
		assert.Len(t, schedules, 1)
	})

	t.Run("Route And Status Filter", func(t *testing.T) {
		status := models.ScheduleStatusScheduled
		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE route_id = \$1 AND status = \$2 ORDER BY departure_time`).
			WithArgs(routeID, status).
			WillReturnRows(scheduleRows())

		schedules, err := repo.List(routeID, &status)
		require.NoError(t, err)
		assert.Empty(t, schedules)
	})

	t.Run("Status Only", func(t *testing.T) {
		status := models.ScheduleStatusDelayed
		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE status = \$1 ORDER BY departure_time`).
			WithArgs(status).
			WillReturnRows(scheduleRows())

		_, err := repo.List("", &status)
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "route_id", "vehicle_id", "departure_time", "arrival_time",
		"base_price", "status", "created_at", "updated_at",
	})
}
