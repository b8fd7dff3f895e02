package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/config"
	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// ReservationService manages whole-vehicle charter reservations: quote,
// request, decision, payments and completion. Approvals cascade to the
// vehicle's status and every transition broadcasts a status_update.
type ReservationService struct {
	db              database.DB
	reservationRepo *database.SpecialReservationRepository
	vehicleRepo     *database.VehicleRepository
	availability    *AvailabilityService
	pricing         *PricingService
	notifications   *NotificationService
	broadcaster     Broadcaster
	pricingCfg      config.PricingConfig
	logger          *logrus.Logger
}

// NewReservationService creates a new ReservationService
func NewReservationService(
	db database.DB,
	reservationRepo *database.SpecialReservationRepository,
	vehicleRepo *database.VehicleRepository,
	availability *AvailabilityService,
	pricing *PricingService,
	notifications *NotificationService,
	broadcaster Broadcaster,
	pricingCfg config.PricingConfig,
	logger *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		db:              db,
		reservationRepo: reservationRepo,
		vehicleRepo:     vehicleRepo,
		availability:    availability,
		pricing:         pricing,
		notifications:   notifications,
		broadcaster:     broadcaster,
		pricingCfg:      pricingCfg,
		logger:          logger,
	}
}

// CreateReservation quotes and records a charter request in REQUESTED
// status. The vehicle's calendar is checked inside the transaction with
// the vehicle row locked, so concurrent requests for the same window
// cannot both slip through.
func (s *ReservationService) CreateReservation(customerID string, req *models.CreateReservationRequest) (*models.SpecialReservation, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("request", err.Error())
	}

	res := s.buildReservation(customerID, req)

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	vehicle, err := s.vehicleRepo.GetForUpdateTx(tx, req.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", req.VehicleID)
		}
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}

	if err := s.availability.RequireAvailable(vehicle.ID, res.DepartureTime, res.EndTime(), AvailabilityOptions{}); err != nil {
		return nil, err
	}

	var subtype *models.VehicleSubtype
	if vehicle.VehicleSubtypeID != nil {
		subtype, err = s.vehicleRepo.GetSubtypeByID(*vehicle.VehicleSubtypeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load vehicle subtype: %w", err)
		}
	}
	s.pricing.QuoteReservation(res, subtype)

	if err := s.reservationRepo.CreateTx(tx, res); err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	s.broadcastStatus(res)
	s.notifications.NotifyStaff(models.NotificationReservationCreated,
		"New charter request",
		fmt.Sprintf("Charter from %s to %s on %s", res.Source, res.Destination, res.DepartureTime.Format(time.RFC3339)),
		strPtr("reservation"), &res.ID)
	s.notifications.NotifyCustomer(customerID, models.NotificationReservationCreated,
		"Charter request received",
		fmt.Sprintf("Your charter request is pending approval. Quoted price: %.2f", res.FinalPrice),
		strPtr("reservation"), &res.ID)

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"vehicle_id":     res.VehicleID,
		"final_price":    res.FinalPrice,
	}).Info("Charter reservation requested")
	return res, nil
}

// QuoteReservation prices a charter request without recording it
func (s *ReservationService) QuoteReservation(customerID string, req *models.CreateReservationRequest) (*models.Quote, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("request", err.Error())
	}

	res := s.buildReservation(customerID, req)

	vehicle, err := s.vehicleRepo.GetByID(req.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", req.VehicleID)
		}
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	var subtype *models.VehicleSubtype
	if vehicle.VehicleSubtypeID != nil {
		subtype, err = s.vehicleRepo.GetSubtypeByID(*vehicle.VehicleSubtypeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load vehicle subtype: %w", err)
		}
	}

	quote := s.pricing.QuoteReservation(res, subtype)
	return &quote, nil
}

// Approve decides a REQUESTED reservation in the customer's favor. The
// vehicle's calendar is re-checked excluding this reservation; if a
// conflict appeared since the request, the reservation stays REQUESTED
// and the conflict is reported.
func (s *ReservationService) Approve(reservationID string) (*models.SpecialReservation, error) {
	var vehicleEvent *models.StatusUpdateEvent

	res, err := s.decide(reservationID, models.ReservationStatusRequested,
		func(tx *sqlx.Tx, res *models.SpecialReservation) error {
			if err := s.availability.RequireAvailable(res.VehicleID, res.DepartureTime, res.EndTime(),
				AvailabilityOptions{ExcludeReservationID: res.ID}); err != nil {
				return err
			}

			if err := s.reservationRepo.UpdateStatusTx(tx, res.ID, models.ReservationStatusApproved, nil); err != nil {
				return fmt.Errorf("failed to approve reservation: %w", err)
			}
			res.Status = models.ReservationStatusApproved

			if err := s.vehicleRepo.UpdateStatusTx(tx, res.VehicleID, models.VehicleStatusReserved); err != nil {
				return fmt.Errorf("failed to reserve vehicle: %w", err)
			}
			event := models.NewStatusUpdateEvent(models.TargetKindVehicle, res.VehicleID, string(models.VehicleStatusReserved))
			vehicleEvent = &event
			return nil
		})
	if err != nil {
		return nil, err
	}

	if vehicleEvent != nil {
		s.broadcaster.Publish(vehicleEvent.Topic(), *vehicleEvent)
	}
	s.notifications.NotifyCustomer(res.CustomerID, models.NotificationReservationApproved,
		"Charter approved",
		fmt.Sprintf("Your charter from %s to %s has been approved", res.Source, res.Destination),
		strPtr("reservation"), &res.ID)
	return res, nil
}

// Reject declines a REQUESTED reservation with a reason
func (s *ReservationService) Reject(reservationID, reason string) (*models.SpecialReservation, error) {
	var vehicleEvent *models.StatusUpdateEvent

	res, err := s.decide(reservationID, models.ReservationStatusRequested,
		func(tx *sqlx.Tx, res *models.SpecialReservation) error {
			if err := s.reservationRepo.UpdateStatusTx(tx, res.ID, models.ReservationStatusRejected, &reason); err != nil {
				return fmt.Errorf("failed to reject reservation: %w", err)
			}
			res.Status = models.ReservationStatusRejected
			res.RejectionReason = &reason

			event, err := s.releaseVehicleTx(tx, res)
			if err != nil {
				return err
			}
			vehicleEvent = event
			return nil
		})
	if err != nil {
		return nil, err
	}

	if vehicleEvent != nil {
		s.broadcaster.Publish(vehicleEvent.Topic(), *vehicleEvent)
	}
	s.notifications.NotifyCustomer(res.CustomerID, models.NotificationReservationRejected,
		"Charter rejected",
		fmt.Sprintf("Your charter request was rejected: %s", reason),
		strPtr("reservation"), &res.ID)
	return res, nil
}

// Complete closes an APPROVED reservation after the trip, freeing the
// vehicle when no other approved charter holds it.
func (s *ReservationService) Complete(reservationID string) (*models.SpecialReservation, error) {
	var vehicleEvent *models.StatusUpdateEvent

	res, err := s.decide(reservationID, models.ReservationStatusApproved,
		func(tx *sqlx.Tx, res *models.SpecialReservation) error {
			if err := s.reservationRepo.UpdateStatusTx(tx, res.ID, models.ReservationStatusCompleted, nil); err != nil {
				return fmt.Errorf("failed to complete reservation: %w", err)
			}
			res.Status = models.ReservationStatusCompleted

			event, err := s.releaseVehicleTx(tx, res)
			if err != nil {
				return err
			}
			vehicleEvent = event
			return nil
		})
	if err != nil {
		return nil, err
	}

	if vehicleEvent != nil {
		s.broadcaster.Publish(vehicleEvent.Topic(), *vehicleEvent)
	}
	s.notifications.NotifyCustomer(res.CustomerID, models.NotificationReservationCompleted,
		"Charter completed",
		fmt.Sprintf("Your charter from %s to %s is complete", res.Source, res.Destination),
		strPtr("reservation"), &res.ID)
	return res, nil
}

// Cancel withdraws a reservation. Customers may cancel their own
// REQUESTED or APPROVED charters; staff may cancel any live one.
func (s *ReservationService) Cancel(reservationID, actorID string, actorIsStaff bool) (*models.SpecialReservation, error) {
	var vehicleEvent *models.StatusUpdateEvent

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservationRepo.GetForUpdateTx(tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("reservation", reservationID)
		}
		return nil, fmt.Errorf("failed to lock reservation: %w", err)
	}
	if !actorIsStaff && res.CustomerID != actorID {
		return nil, domain.NewNotFoundError("reservation", reservationID)
	}
	if !res.OccupiesVehicle() {
		return nil, domain.NewStateError("reservation", string(res.Status), "reservation cannot be cancelled")
	}

	if err := s.reservationRepo.UpdateStatusTx(tx, res.ID, models.ReservationStatusCancelled, nil); err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}
	res.Status = models.ReservationStatusCancelled

	vehicleEvent, err = s.releaseVehicleTx(tx, res)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.broadcastStatus(res)
	if vehicleEvent != nil {
		s.broadcaster.Publish(vehicleEvent.Topic(), *vehicleEvent)
	}
	s.notifications.NotifyStaff(models.NotificationSystem,
		"Charter cancelled",
		fmt.Sprintf("Charter %s was cancelled", res.ID),
		strPtr("reservation"), &res.ID)
	return res, nil
}

// RecordPayment applies a payment to a live reservation's deposit and
// recomputes the balance. Overpayment is rejected.
func (s *ReservationService) RecordPayment(reservationID string, req *models.RecordPaymentRequest) (*models.SpecialReservation, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("request", err.Error())
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservationRepo.GetForUpdateTx(tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("reservation", reservationID)
		}
		return nil, fmt.Errorf("failed to lock reservation: %w", err)
	}
	if !res.OccupiesVehicle() {
		return nil, domain.NewStateError("reservation", string(res.Status), "reservation cannot accept payments")
	}

	now := time.Now()
	if err := s.pricing.ApplyPayment(res, req.Amount, now); err != nil {
		return nil, err
	}

	if err := s.reservationRepo.UpdatePaymentTx(tx, res); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	s.notifications.NotifyStaff(models.NotificationPaymentReceived,
		"Payment received",
		fmt.Sprintf("Payment of %.2f received for charter %s", req.Amount, res.ID),
		strPtr("reservation"), &res.ID)
	s.notifications.NotifyCustomer(res.CustomerID, models.NotificationPaymentReceived,
		"Payment recorded",
		fmt.Sprintf("Your payment of %.2f has been recorded. Balance: %.2f", req.Amount, res.BalanceAmount),
		strPtr("reservation"), &res.ID)

	s.logger.WithFields(logrus.Fields{
		"reservation_id": res.ID,
		"amount":         req.Amount,
		"balance":        res.BalanceAmount,
		"fully_paid":     res.IsFullyPaid,
	}).Info("Charter payment recorded")
	return res, nil
}

// ListMine returns a customer's reservations, newest first
func (s *ReservationService) ListMine(customerID string) ([]models.SpecialReservation, error) {
	reservations, err := s.reservationRepo.ListByCustomer(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// List returns reservations, optionally filtered by status
func (s *ReservationService) List(status *models.ReservationStatus) ([]models.SpecialReservation, error) {
	reservations, err := s.reservationRepo.List(status)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}

// Get returns one reservation visible to the actor
func (s *ReservationService) Get(reservationID, actorID string, actorIsStaff bool) (*models.SpecialReservation, error) {
	res, err := s.reservationRepo.GetByID(reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("reservation", reservationID)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	if !actorIsStaff && res.CustomerID != actorID {
		return nil, domain.NewNotFoundError("reservation", reservationID)
	}
	return res, nil
}

// CompleteOverdue closes approved reservations whose window has passed.
// Returns how many were completed.
func (s *ReservationService) CompleteOverdue(now time.Time) (int, error) {
	overdue, err := s.reservationRepo.FindOverdue(now)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue reservations: %w", err)
	}

	completed := 0
	for i := range overdue {
		if _, err := s.Complete(overdue[i].ID); err != nil {
			if domain.IsState(err) || domain.IsNotFound(err) {
				continue
			}
			s.logger.WithField("reservation_id", overdue[i].ID).WithError(err).Error("Overdue completion failed")
			continue
		}
		completed++
	}
	return completed, nil
}

// buildReservation assembles an unsaved reservation from a request,
// filling pricing inputs with configured defaults.
func (s *ReservationService) buildReservation(customerID string, req *models.CreateReservationRequest) *models.SpecialReservation {
	res := &models.SpecialReservation{
		CustomerID:      customerID,
		VehicleID:       req.VehicleID,
		Source:          req.Source,
		Destination:     req.Destination,
		Stops:           models.StringArray(req.Stops),
		DistanceKM:      req.DistanceKM,
		DepartureTime:   req.DepartureTime,
		IsRoundTrip:     req.IsRoundTrip,
		ReturnTime:      req.ReturnTime,
		DurationDays:    req.DurationDays,
		TripPurpose:     req.TripPurpose,
		PassengerCount:  req.PassengerCount,
		SeasonFactor:    1.0,
		DriverAllowance: s.pricingCfg.DriverDailyAllowance,
		Status:          models.ReservationStatusRequested,
	}

	if req.SeasonFactor != nil {
		res.SeasonFactor = *req.SeasonFactor
	}
	if req.DriverAllowance != nil {
		res.DriverAllowance = *req.DriverAllowance
	}
	if req.DemandSurcharge != nil {
		res.DemandSurcharge = *req.DemandSurcharge
	}
	if req.DiscountAmount != nil {
		res.DiscountAmount = *req.DiscountAmount
	}

	res.EstimatedArrivalTime = s.pricing.EstimateArrival(res.DepartureTime, res.DistanceKM)
	return res
}

// decide runs a status transition on a reservation that must currently
// be in the given status, locking both the reservation and its vehicle.
func (s *ReservationService) decide(reservationID string, required models.ReservationStatus, apply func(*sqlx.Tx, *models.SpecialReservation) error) (*models.SpecialReservation, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservationRepo.GetForUpdateTx(tx, reservationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("reservation", reservationID)
		}
		return nil, fmt.Errorf("failed to lock reservation: %w", err)
	}
	if res.Status != required {
		return nil, domain.NewStateError("reservation", string(res.Status),
			fmt.Sprintf("reservation must be %s", required))
	}

	if _, err := s.vehicleRepo.GetForUpdateTx(tx, res.VehicleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("vehicle", res.VehicleID)
		}
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}

	if err := apply(tx, res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	s.broadcastStatus(res)
	return res, nil
}

// releaseVehicleTx returns a RESERVED vehicle to ACTIVE when the given
// reservation was the last approved charter holding it.
func (s *ReservationService) releaseVehicleTx(tx *sqlx.Tx, res *models.SpecialReservation) (*models.StatusUpdateEvent, error) {
	remaining, err := s.reservationRepo.CountApprovedTx(tx, res.VehicleID, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved reservations: %w", err)
	}
	if remaining > 0 {
		return nil, nil
	}

	vehicle, err := s.vehicleRepo.GetForUpdateTx(tx, res.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock vehicle: %w", err)
	}
	if vehicle.Status != models.VehicleStatusReserved {
		return nil, nil
	}

	if err := s.vehicleRepo.UpdateStatusTx(tx, vehicle.ID, models.VehicleStatusActive); err != nil {
		return nil, fmt.Errorf("failed to release vehicle: %w", err)
	}

	event := models.NewStatusUpdateEvent(models.TargetKindVehicle, vehicle.ID, string(models.VehicleStatusActive))
	return &event, nil
}

func (s *ReservationService) broadcastStatus(res *models.SpecialReservation) {
	event := models.NewStatusUpdateEvent(models.TargetKindReservation, res.ID, string(res.Status))
	s.broadcaster.Publish(event.Topic(), event)
}
