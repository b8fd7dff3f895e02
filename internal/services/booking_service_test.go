package services

import (
	"database/sql"
	"sync"
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

// recordingBroadcaster captures published events for assertions
type recordingBroadcaster struct {
	mu     sync.Mutex
	topics []string
	events []interface{}
}

func (r *recordingBroadcaster) Publish(topic string, message interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, message)
}

func newBookingServiceForTest(db *sql.DB, broadcaster Broadcaster) *BookingService {
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
	return NewBookingService(
		mockDB,
		database.NewTicketRepository(mockDB),
		database.NewScheduleRepository(mockDB),
		database.NewOfferRepository(mockDB),
		database.NewSeatAvailabilityRepository(mockDB),
		seatService,
		NewPricingService(NewDefaultSurchargePolicy(testPricingConfig()), testPricingConfig(), testLogger()),
		notifications,
		broadcaster,
		testLogger(),
	)
}

func ticketRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "schedule_id", "seat_id", "seat_number", "customer_id", "offer_id",
		"base_price", "discount", "final_price", "status", "passenger_name",
		"booking_time", "cancellation_time", "cancellation_reason", "updated_at",
	})
}

func TestConfirmTicket(t *testing.T) {
	scheduleID := uuid.New().String()
	seatID := uuid.New().String()
	customerID := uuid.New().String()

	t.Run("Confirms And Broadcasts After Commit", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		recorder := &recordingBroadcaster{}
		svc := newBookingServiceForTest(db, recorder)

		ticketID := uuid.New().String()
		seatRowID := uuid.New().String()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(ticketID).
			WillReturnRows(ticketRows().AddRow(
				ticketID, scheduleID, seatID, "3A", customerID, nil,
				1500.0, 0.0, 1500.0, "RESERVED", "Pasang Sherpa",
				now, nil, nil, now,
			))
		mock.ExpectExec(`UPDATE tickets SET status`).
			WithArgs(models.TicketStatusConfirmed, ticketID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT (.+) FROM seat_availability WHERE schedule_id`).
			WithArgs(scheduleID, seatID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "schedule_id", "seat_id", "seat_number", "status", "ticket_id", "updated_at",
			}).AddRow(seatRowID, scheduleID, seatID, "3A", models.SeatReserved, ticketID, now))
		mock.ExpectExec(`UPDATE seat_availability SET status`).
			WithArgs(models.SeatBooked, ticketID, seatRowID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ticket, err := svc.ConfirmTicket(ticketID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusConfirmed, ticket.Status)
		assert.NoError(t, mock.ExpectationsWereMet())

		// seat event on the schedule's seat topic, status event on the ticket topic
		require.Len(t, recorder.topics, 2)
		assert.Equal(t, "seats:"+scheduleID, recorder.topics[0])
		assert.Equal(t, "ticket:"+ticketID, recorder.topics[1])

		seatEvent, ok := recorder.events[0].(models.SeatUpdateEvent)
		require.True(t, ok)
		assert.Equal(t, string(models.SeatBooked), seatEvent.Status)

		statusEvent, ok := recorder.events[1].(models.StatusUpdateEvent)
		require.True(t, ok)
		assert.Equal(t, string(models.TicketStatusConfirmed), statusEvent.Status)
	})

	t.Run("Only Reserved Tickets Confirm", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		recorder := &recordingBroadcaster{}
		svc := newBookingServiceForTest(db, recorder)

		ticketID := uuid.New().String()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(ticketID).
			WillReturnRows(ticketRows().AddRow(
				ticketID, scheduleID, seatID, "3A", customerID, nil,
				1500.0, 0.0, 1500.0, "CANCELLED", "Pasang Sherpa",
				now, &now, nil, now,
			))
		mock.ExpectRollback()

		_, err = svc.ConfirmTicket(ticketID)
		assert.True(t, domain.IsState(err))
		assert.Empty(t, recorder.topics)
	})

	t.Run("Not Found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		svc := newBookingServiceForTest(db, &recordingBroadcaster{})

		ticketID := uuid.New().String()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(ticketID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err = svc.ConfirmTicket(ticketID)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestTicketLifecycleEvents(t *testing.T) {
	// reserved ticket gets confirmed, then cancelled: every transition
	// broadcasts a seat event and a ticket status event, in that order
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	recorder := &recordingBroadcaster{}
	svc := newBookingServiceForTest(db, recorder)

	ticketID := uuid.New().String()
	scheduleID := uuid.New().String()
	seatID := uuid.New().String()
	seatRowID := uuid.New().String()
	customerID := uuid.New().String()
	now := time.Now()

	seatRowCols := []string{
		"id", "schedule_id", "seat_id", "seat_number", "status", "ticket_id", "updated_at",
	}

	// confirm
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
		WithArgs(ticketID).
		WillReturnRows(ticketRows().AddRow(
			ticketID, scheduleID, seatID, "5B", customerID, nil,
			1500.0, 0.0, 1500.0, "RESERVED", "Pasang Sherpa",
			now, nil, nil, now,
		))
	mock.ExpectExec(`UPDATE tickets SET status`).
		WithArgs(models.TicketStatusConfirmed, ticketID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM seat_availability WHERE schedule_id`).
		WithArgs(scheduleID, seatID).
		WillReturnRows(sqlmock.NewRows(seatRowCols).
			AddRow(seatRowID, scheduleID, seatID, "5B", models.SeatReserved, ticketID, now))
	mock.ExpectExec(`UPDATE seat_availability SET status`).
		WithArgs(models.SeatBooked, ticketID, seatRowID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err = svc.ConfirmTicket(ticketID)
	require.NoError(t, err)

	// cancel by the owner
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
		WithArgs(ticketID).
		WillReturnRows(ticketRows().AddRow(
			ticketID, scheduleID, seatID, "5B", customerID, nil,
			1500.0, 0.0, 1500.0, "CONFIRMED", "Pasang Sherpa",
			now, nil, nil, now,
		))
	mock.ExpectExec(`UPDATE tickets`).
		WithArgs(models.TicketStatusCancelled, nil, ticketID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM seat_availability WHERE schedule_id`).
		WithArgs(scheduleID, seatID).
		WillReturnRows(sqlmock.NewRows(seatRowCols).
			AddRow(seatRowID, scheduleID, seatID, "5B", models.SeatBooked, ticketID, now))
	mock.ExpectExec(`UPDATE seat_availability SET status`).
		WithArgs(models.SeatAvailable, nil, seatRowID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	ticket, err := svc.CancelTicket(ticketID, customerID, false, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCancelled, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, recorder.topics, 4)
	assert.Equal(t, []string{
		"seats:" + scheduleID,
		"ticket:" + ticketID,
		"seats:" + scheduleID,
		"ticket:" + ticketID,
	}, recorder.topics)

	bookedEvent := recorder.events[0].(models.SeatUpdateEvent)
	assert.Equal(t, string(models.SeatBooked), bookedEvent.Status)
	confirmedEvent := recorder.events[1].(models.StatusUpdateEvent)
	assert.Equal(t, string(models.TicketStatusConfirmed), confirmedEvent.Status)
	releasedEvent := recorder.events[2].(models.SeatUpdateEvent)
	assert.Equal(t, string(models.SeatAvailable), releasedEvent.Status)
	cancelledEvent := recorder.events[3].(models.StatusUpdateEvent)
	assert.Equal(t, string(models.TicketStatusCancelled), cancelledEvent.Status)
}

func TestGetTicketVisibility(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := newBookingServiceForTest(db, &recordingBroadcaster{})

	ticketID := uuid.New().String()
	ownerID := uuid.New().String()
	now := time.Now()

	returnTicket := func() {
		mock.ExpectQuery(`SELECT (.+) FROM tickets WHERE id`).
			WithArgs(ticketID).
			WillReturnRows(ticketRows().AddRow(
				ticketID, uuid.New().String(), uuid.New().String(), "3A", ownerID, nil,
				1500.0, 0.0, 1500.0, "RESERVED", "Pasang Sherpa",
				now, nil, nil, now,
			))
	}

	t.Run("Owner Sees Own Ticket", func(t *testing.T) {
		returnTicket()
		ticket, err := svc.GetTicket(ticketID, ownerID, false)
		require.NoError(t, err)
		assert.Equal(t, ticketID, ticket.ID)
	})

	t.Run("Staff Sees Any Ticket", func(t *testing.T) {
		returnTicket()
		_, err := svc.GetTicket(ticketID, uuid.New().String(), true)
		assert.NoError(t, err)
	})

	t.Run("Other Customers See Not Found", func(t *testing.T) {
		returnTicket()
		_, err := svc.GetTicket(ticketID, uuid.New().String(), false)
		assert.True(t, domain.IsNotFound(err))
	})
}
