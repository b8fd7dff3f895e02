package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVehicleCapacity(t *testing.T) {
	tests := []struct {
		name     string
		rowCount int
		backRow  bool
		want     int
	}{
		{"Ten rows with bench", 10, true, 25},
		{"Ten rows without bench", 10, false, 20},
		{"Single row", 1, false, 2},
		{"Single row with bench", 1, true, 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := &Vehicle{RowCount: tc.rowCount, HasBackRow: tc.backRow}
			assert.Equal(t, tc.want, v.Capacity())
		})
	}
}

func TestVehicleIsOperational(t *testing.T) {
	assert.True(t, (&Vehicle{Status: VehicleStatusActive}).IsOperational())
	assert.True(t, (&Vehicle{Status: VehicleStatusReserved}).IsOperational())
	assert.False(t, (&Vehicle{Status: VehicleStatusMaintenance}).IsOperational())
	assert.False(t, (&Vehicle{Status: VehicleStatusInactive}).IsOperational())
}

func TestSeatNumber(t *testing.T) {
	position := 3
	tests := []struct {
		name string
		seat Seat
		want string
	}{
		{"Window seat", Seat{RowNumber: 3, SeatGroup: SeatGroupA}, "3A"},
		{"Aisle seat", Seat{RowNumber: 12, SeatGroup: SeatGroupB}, "12B"},
		{"Back bench", Seat{RowNumber: 11, SeatGroup: SeatGroupBack, Position: &position}, "BACK-3"},
		{"Back bench no position", Seat{RowNumber: 11, SeatGroup: SeatGroupBack}, "BACK-0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.seat.Number())
		})
	}
}

func TestScheduleOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	schedule := &Schedule{
		DepartureTime: base,
		ArrivalTime:   base.Add(2 * time.Hour),
	}

	assert.True(t, schedule.Overlaps(base.Add(time.Hour), base.Add(3*time.Hour)))
	assert.True(t, schedule.Overlaps(base.Add(-time.Hour), base.Add(time.Hour)))
	// touching endpoints never conflict
	assert.False(t, schedule.Overlaps(base.Add(2*time.Hour), base.Add(4*time.Hour)))
	assert.False(t, schedule.Overlaps(base.Add(-2*time.Hour), base))
}

func TestScheduleLifecyclePredicates(t *testing.T) {
	active := []ScheduleStatus{ScheduleStatusScheduled, ScheduleStatusDelayed, ScheduleStatusInProgress}
	for _, status := range active {
		assert.True(t, (&Schedule{Status: status}).IsActive(), string(status))
	}
	assert.False(t, (&Schedule{Status: ScheduleStatusCompleted}).IsActive())
	assert.False(t, (&Schedule{Status: ScheduleStatusCancelled}).IsActive())

	assert.True(t, (&Schedule{Status: ScheduleStatusScheduled}).IsBookable())
	assert.True(t, (&Schedule{Status: ScheduleStatusDelayed}).IsBookable())
	assert.False(t, (&Schedule{Status: ScheduleStatusInProgress}).IsBookable())
}

func TestUpdateScheduleRequestValidate(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name   string
		status string
		valid  bool
	}{
		{"Scheduled", "SCHEDULED", true},
		{"Delayed", "DELAYED", true},
		{"In Progress", "IN_PROGRESS", true},
		{"Completed Rejected", "COMPLETED", false},
		{"Cancelled Rejected", "CANCELLED", false},
		{"Unknown Rejected", "FINISHED", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := &UpdateScheduleRequest{Status: strPtr(tc.status)}
			err := req.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	t.Run("Inverted Window", func(t *testing.T) {
		departure := time.Now().Add(24 * time.Hour)
		arrival := departure.Add(-time.Hour)
		req := &UpdateScheduleRequest{DepartureTime: &departure, ArrivalTime: &arrival}
		assert.Error(t, req.Validate())
	})
}
