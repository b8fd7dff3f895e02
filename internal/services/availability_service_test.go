package services

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

func TestWindowsOverlap(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"Full overlap", at(0), at(4), at(1), at(3), true},
		{"Partial overlap", at(0), at(2), at(1), at(3), true},
		{"Identical windows", at(0), at(2), at(0), at(2), true},
		{"Contained window", at(1), at(2), at(0), at(4), true},
		{"Disjoint", at(0), at(1), at(2), at(3), false},
		{"Touching endpoints", at(0), at(2), at(2), at(4), false},
		{"Touching endpoints reversed", at(2), at(4), at(0), at(2), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WindowsOverlap(tc.s1, tc.e1, tc.s2, tc.e2))
			// overlap is symmetric
			assert.Equal(t, tc.want, WindowsOverlap(tc.s2, tc.e2, tc.s1, tc.e1))
		})
	}
}

func TestWindowsOverlap_BackToBack(t *testing.T) {
	// a day of back-to-back two-hour windows never conflicts
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		s1 := start.Add(time.Duration(i*2) * time.Hour)
		e1 := s1.Add(2 * time.Hour)
		s2 := e1
		e2 := s2.Add(2 * time.Hour)
		assert.False(t, WindowsOverlap(s1, e1, s2, e2), "window %d", i)
	}
}

func TestCheckAvailability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newAvailabilityService(db)

	vehicleID := uuid.New().String()
	now := time.Now()
	start := now.Add(24 * time.Hour)
	end := start.Add(4 * time.Hour)

	t.Run("Invalid Window", func(t *testing.T) {
		_, err := svc.CheckAvailability(vehicleID, end, start, AvailabilityOptions{})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Vehicle Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id`).
			WithArgs(vehicleID).
			WillReturnError(sql.ErrNoRows)

		_, err := svc.CheckAvailability(vehicleID, start, end, AvailabilityOptions{})
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Vehicle In Maintenance", func(t *testing.T) {
		expectVehicle(mock, vehicleID, "MAINTENANCE")

		conflict, err := svc.CheckAvailability(vehicleID, start, end, AvailabilityOptions{})
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, models.ConflictKindVehicleStatus, conflict.Kind)
		assert.Equal(t, vehicleID, conflict.SourceID)
	})

	t.Run("Schedule Conflict", func(t *testing.T) {
		scheduleID := uuid.New().String()

		expectVehicle(mock, vehicleID, "ACTIVE")
		mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE vehicle_id`).
			WithArgs(vehicleID, start, end, "").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "route_id", "vehicle_id", "departure_time", "arrival_time",
				"base_price", "status", "created_at", "updated_at",
			}).AddRow(
				scheduleID, uuid.New().String(), vehicleID,
				start.Add(-time.Hour), start.Add(time.Hour), 1200.0, "SCHEDULED",
				now, now,
			))

		conflict, err := svc.CheckAvailability(vehicleID, start, end, AvailabilityOptions{})
		require.NoError(t, err)
		require.NotNil(t, conflict)
		assert.Equal(t, models.ConflictKindSchedule, conflict.Kind)
		assert.Equal(t, scheduleID, conflict.SourceID)
	})

	t.Run("Free", func(t *testing.T) {
		expectVehicle(mock, vehicleID, "ACTIVE")
		expectNoScheduleConflicts(mock, vehicleID, start, end, "")
		expectNoReservationConflicts(mock)

		conflict, err := svc.CheckAvailability(vehicleID, start, end, AvailabilityOptions{})
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})

	t.Run("Excludes Own Schedule", func(t *testing.T) {
		editedID := uuid.New().String()

		expectVehicle(mock, vehicleID, "ACTIVE")
		expectNoScheduleConflicts(mock, vehicleID, start, end, editedID)
		expectNoReservationConflicts(mock)

		conflict, err := svc.CheckAvailability(vehicleID, start, end,
			AvailabilityOptions{ExcludeScheduleID: editedID})
		require.NoError(t, err)
		assert.Nil(t, conflict)
	})
}

func TestRequireAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newAvailabilityService(db)

	vehicleID := uuid.New().String()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(4 * time.Hour)

	t.Run("Conflict Becomes Error", func(t *testing.T) {
		expectVehicle(mock, vehicleID, "MAINTENANCE")

		err := svc.RequireAvailable(vehicleID, start, end, AvailabilityOptions{})
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Free Passes", func(t *testing.T) {
		expectVehicle(mock, vehicleID, "ACTIVE")
		expectNoScheduleConflicts(mock, vehicleID, start, end, "")
		expectNoReservationConflicts(mock)

		err := svc.RequireAvailable(vehicleID, start, end, AvailabilityOptions{})
		assert.NoError(t, err)
	})
}

func newAvailabilityService(db *sql.DB) *AvailabilityService {
	mockDB := newMockDatabase(db)
	return NewAvailabilityService(
		database.NewVehicleRepository(mockDB),
		database.NewScheduleRepository(mockDB),
		database.NewSpecialReservationRepository(mockDB),
		testLogger(),
	)
}

func expectVehicle(mock sqlmock.Sqlmock, vehicleID, status string) {
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM vehicles WHERE id`).
		WithArgs(vehicleID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "registration_number", "row_count", "has_back_row",
			"vehicle_subtype_id", "status", "created_at", "updated_at",
		}).AddRow(
			vehicleID, "Himal Express 1", "BA-2-KHA-4521", 10, true,
			nil, status, now, now,
		))
}

func expectNoScheduleConflicts(mock sqlmock.Sqlmock, vehicleID string, start, end time.Time, excludeID string) {
	mock.ExpectQuery(`SELECT (.+) FROM schedules WHERE vehicle_id`).
		WithArgs(vehicleID, start, end, excludeID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func expectNoReservationConflicts(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT (.+) FROM special_reservations WHERE vehicle_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// mockDatabase adapts a sqlmock connection to the database.DB interface
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
