package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// OfferService manages promotional codes
type OfferService struct {
	offerRepo *database.OfferRepository
	pricing   *PricingService
	logger    *logrus.Logger
}

// NewOfferService creates a new OfferService
func NewOfferService(offerRepo *database.OfferRepository, pricing *PricingService, logger *logrus.Logger) *OfferService {
	return &OfferService{
		offerRepo: offerRepo,
		pricing:   pricing,
		logger:    logger,
	}
}

// CreateOffer registers a promotional code. Codes are stored uppercase.
func (s *OfferService) CreateOffer(req *models.CreateOfferRequest) (*models.Offer, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError("offer", err.Error())
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if existing, err := s.offerRepo.GetByCode(code); err == nil && existing != nil {
		return nil, domain.NewConflictError("offer", existing.ID, "offer code already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check offer code: %w", err)
	}

	offer := &models.Offer{
		Code:              code,
		Description:       req.Description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
	}
	if err := s.offerRepo.Create(offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"offer_id": offer.ID,
		"code":     offer.Code,
	}).Info("Offer created")
	return offer, nil
}

// ListOffers returns all offers
func (s *OfferService) ListOffers() ([]models.Offer, error) {
	return s.offerRepo.List()
}

// ValidateOffer reports whether a code applies to a purchase amount and
// what it would cost after the discount. Unknown codes and inapplicable
// offers both come back as invalid with a reason, never as an error.
func (s *OfferService) ValidateOffer(req *models.ValidateOfferRequest, at time.Time) (*models.ValidateOfferResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	offer, err := s.offerRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.ValidateOfferResponse{
				Valid:       false,
				Reason:      "unknown offer code",
				FinalAmount: req.Amount,
			}, nil
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	if err := offer.CanApply(req.Amount, at); err != nil {
		return &models.ValidateOfferResponse{
			Valid:       false,
			Reason:      err.Error(),
			FinalAmount: req.Amount,
		}, nil
	}

	discount, final, err := s.pricing.TicketPricing(req.Amount, offer, at)
	if err != nil {
		return nil, err
	}
	return &models.ValidateOfferResponse{
		Valid:       true,
		Discount:    discount,
		FinalAmount: final,
	}, nil
}
