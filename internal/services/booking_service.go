package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// BookingService sells, confirms and cancels seat tickets. Every
// mutation runs in one transaction with the seat row locked, then
// broadcasts its events after commit.
type BookingService struct {
	db            database.DB
	ticketRepo    *database.TicketRepository
	scheduleRepo  *database.ScheduleRepository
	offerRepo     *database.OfferRepository
	seatAvailRepo *database.SeatAvailabilityRepository
	seatService   *SeatService
	pricing       *PricingService
	notifications *NotificationService
	broadcaster   Broadcaster
	logger        *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	db database.DB,
	ticketRepo *database.TicketRepository,
	scheduleRepo *database.ScheduleRepository,
	offerRepo *database.OfferRepository,
	seatAvailRepo *database.SeatAvailabilityRepository,
	seatService *SeatService,
	pricing *PricingService,
	notifications *NotificationService,
	broadcaster Broadcaster,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		db:            db,
		ticketRepo:    ticketRepo,
		scheduleRepo:  scheduleRepo,
		offerRepo:     offerRepo,
		seatAvailRepo: seatAvailRepo,
		seatService:   seatService,
		pricing:       pricing,
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        logger,
	}
}

// BookTicket sells one seat on a schedule to a customer, applying an
// optional offer code. The seat row is locked for the duration of the
// transaction so two buyers cannot take the same seat.
func (s *BookingService) BookTicket(customerID string, req *models.BookTicketRequest) (*models.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("request", err.Error())
	}

	schedule, err := s.scheduleRepo.GetByID(req.ScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("schedule", req.ScheduleID)
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if !schedule.IsBookable() {
		return nil, domain.NewStateError("schedule", string(schedule.Status), "schedule is not open for booking")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seatRow, err := s.seatAvailRepo.GetForUpdateTx(tx, req.ScheduleID, req.SeatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("seat", req.SeatID)
		}
		return nil, fmt.Errorf("failed to lock seat: %w", err)
	}
	if !seatRow.IsBookable() {
		return nil, domain.NewConflictError("seat", seatRow.SeatNumber, "seat is not available")
	}

	now := time.Now()
	var offer *models.Offer
	if req.OfferCode != nil && *req.OfferCode != "" {
		offer, err = s.offerRepo.GetByCodeForUpdateTx(tx, *req.OfferCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domain.NewValidationError("offer_code", "unknown offer code")
			}
			return nil, fmt.Errorf("failed to lock offer: %w", err)
		}
	}

	discount, finalPrice, err := s.pricing.TicketPricing(schedule.BasePrice, offer, now)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		ScheduleID:    req.ScheduleID,
		SeatID:        req.SeatID,
		SeatNumber:    seatRow.SeatNumber,
		CustomerID:    customerID,
		BasePrice:     schedule.BasePrice,
		Discount:      discount,
		FinalPrice:    finalPrice,
		Status:        models.TicketStatusReserved,
		PassengerName: req.PassengerName,
	}
	if offer != nil {
		ticket.OfferID = &offer.ID
		if err := s.offerRepo.IncrementUsageTx(tx, offer.ID); err != nil {
			return nil, fmt.Errorf("failed to count offer usage: %w", err)
		}
	}

	if err := s.ticketRepo.CreateTx(tx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	seatEvent, err := s.seatService.ApplyTicketTx(tx, ticket)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.publishSeatEvent(seatEvent)
	s.broadcastTicketStatus(ticket)
	s.notifications.NotifyCustomer(customerID, models.NotificationSystem,
		"Ticket reserved",
		fmt.Sprintf("Seat %s reserved for %.2f", ticket.SeatNumber, ticket.FinalPrice),
		strPtr("ticket"), &ticket.ID)

	s.logger.WithFields(logrus.Fields{
		"ticket_id":   ticket.ID,
		"schedule_id": ticket.ScheduleID,
		"seat_number": ticket.SeatNumber,
		"final_price": ticket.FinalPrice,
	}).Info("Ticket booked")
	return ticket, nil
}

// CancelTicket cancels a ticket and releases its seat. Customers may
// only cancel their own tickets; staff may cancel any.
func (s *BookingService) CancelTicket(ticketID, actorID string, actorIsStaff bool, reason *string) (*models.Ticket, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.GetForUpdateTx(tx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("ticket", ticketID)
		}
		return nil, fmt.Errorf("failed to lock ticket: %w", err)
	}
	if !actorIsStaff && ticket.CustomerID != actorID {
		return nil, domain.NewNotFoundError("ticket", ticketID)
	}
	if !ticket.CanBeCancelled() {
		return nil, domain.NewStateError("ticket", string(ticket.Status), "ticket cannot be cancelled")
	}

	if err := s.ticketRepo.CancelTx(tx, ticketID, reason); err != nil {
		return nil, fmt.Errorf("failed to cancel ticket: %w", err)
	}
	ticket.Status = models.TicketStatusCancelled

	seatEvent, err := s.seatService.ApplyTicketTx(tx, ticket)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.publishSeatEvent(seatEvent)
	s.broadcastTicketStatus(ticket)
	s.notifications.NotifyCustomer(ticket.CustomerID, models.NotificationSystem,
		"Ticket cancelled",
		fmt.Sprintf("Your ticket for seat %s was cancelled", ticket.SeatNumber),
		strPtr("ticket"), &ticket.ID)

	s.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"actor_id":  actorID,
	}).Info("Ticket cancelled")
	return ticket, nil
}

// ConfirmTicket moves a RESERVED ticket to CONFIRMED, booking its seat
func (s *BookingService) ConfirmTicket(ticketID string) (*models.Ticket, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.GetForUpdateTx(tx, ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("ticket", ticketID)
		}
		return nil, fmt.Errorf("failed to lock ticket: %w", err)
	}
	if !ticket.CanBeConfirmed() {
		return nil, domain.NewStateError("ticket", string(ticket.Status), "only reserved tickets can be confirmed")
	}

	if err := s.ticketRepo.UpdateStatusTx(tx, ticketID, models.TicketStatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to confirm ticket: %w", err)
	}
	ticket.Status = models.TicketStatusConfirmed

	seatEvent, err := s.seatService.ApplyTicketTx(tx, ticket)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	s.publishSeatEvent(seatEvent)
	s.broadcastTicketStatus(ticket)
	return ticket, nil
}

// ListMine returns a customer's tickets, newest first
func (s *BookingService) ListMine(customerID string) ([]models.Ticket, error) {
	tickets, err := s.ticketRepo.ListByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket returns one ticket visible to the actor
func (s *BookingService) GetTicket(ticketID, actorID string, actorIsStaff bool) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ticketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("ticket", ticketID)
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if !actorIsStaff && ticket.CustomerID != actorID {
		return nil, domain.NewNotFoundError("ticket", ticketID)
	}
	return ticket, nil
}

// AutoConfirmDueTickets confirms every RESERVED ticket on a schedule
// departing within the lead window, one transaction per ticket so a
// single failure does not hold the rest back. Returns how many tickets
// were confirmed.
func (s *BookingService) AutoConfirmDueTickets(now time.Time, lead time.Duration) (int, error) {
	due, err := s.ticketRepo.FindReservedDeparting(now, lead)
	if err != nil {
		return 0, fmt.Errorf("failed to find due tickets: %w", err)
	}

	confirmed := 0
	for i := range due {
		if _, err := s.ConfirmTicket(due[i].ID); err != nil {
			// Raced with a manual confirm or cancel; skip and move on
			if domain.IsState(err) || domain.IsNotFound(err) {
				continue
			}
			s.logger.WithField("ticket_id", due[i].ID).WithError(err).Error("Auto-confirm failed")
			continue
		}
		confirmed++
	}

	if confirmed > 0 {
		s.logger.WithFields(logrus.Fields{
			"confirmed": confirmed,
			"window":    lead.String(),
		}).Info("Auto-confirmed pre-departure tickets")
	}
	return confirmed, nil
}

func (s *BookingService) publishSeatEvent(event *models.SeatUpdateEvent) {
	if event == nil {
		return
	}
	s.broadcaster.Publish(event.Topic(), *event)
}

func (s *BookingService) broadcastTicketStatus(ticket *models.Ticket) {
	event := models.NewStatusUpdateEvent(models.TargetKindTicket, ticket.ID, string(ticket.Status))
	s.broadcaster.Publish(event.Topic(), event)
}

func strPtr(s string) *string {
	return &s
}
