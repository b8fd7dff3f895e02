package services

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/config"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// round trip multiplier: full fare out, 80% of fare back
const roundTripFactor = 1.8

// SurchargePolicy computes the distance and time surcharges applied to a
// charter's base price. Implementations may plug in demand models; the
// default is rule-based.
type SurchargePolicy interface {
	DistanceSurcharge(basePrice, distanceKM float64) float64
	TimeSurcharge(basePrice float64, departure time.Time) float64
}

// DefaultSurchargePolicy grants a bulk discount on long trips and adds a
// premium during peak traffic hours.
type DefaultSurchargePolicy struct {
	LongTripThresholdKM  float64
	LongTripDiscountRate float64
	PeakSurchargeRate    float64
}

// NewDefaultSurchargePolicy builds the policy from configuration
func NewDefaultSurchargePolicy(cfg config.PricingConfig) *DefaultSurchargePolicy {
	return &DefaultSurchargePolicy{
		LongTripThresholdKM:  cfg.LongTripThresholdKM,
		LongTripDiscountRate: cfg.LongTripDiscountRate,
		PeakSurchargeRate:    cfg.PeakSurchargeRate,
	}
}

// DistanceSurcharge returns a negative surcharge (discount) for trips
// beyond the long-trip threshold.
func (p *DefaultSurchargePolicy) DistanceSurcharge(basePrice, distanceKM float64) float64 {
	if distanceKM > p.LongTripThresholdKM {
		return -basePrice * p.LongTripDiscountRate
	}
	return 0
}

// TimeSurcharge returns the peak-hour premium for departures in the
// morning (06:00-09:59) and evening (16:00-19:59) rush windows.
func (p *DefaultSurchargePolicy) TimeSurcharge(basePrice float64, departure time.Time) float64 {
	hour := departure.Hour()
	if (hour >= 6 && hour <= 9) || (hour >= 16 && hour <= 19) {
		return basePrice * p.PeakSurchargeRate
	}
	return 0
}

// PricingService computes schedule seat prices, ticket discounts and
// charter quotes.
type PricingService struct {
	policy SurchargePolicy
	config config.PricingConfig
	logger *logrus.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(policy SurchargePolicy, cfg config.PricingConfig, logger *logrus.Logger) *PricingService {
	return &PricingService{
		policy: policy,
		config: cfg,
		logger: logger,
	}
}

// round2 rounds to two decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SchedulePrice derives the per-seat base price of a schedule from its
// route distance and the vehicle subtype's rates. Returns 0 when either
// is missing, meaning the schedule cannot be priced yet.
func (s *PricingService) SchedulePrice(route *models.Route, subtype *models.VehicleSubtype) float64 {
	if route == nil || subtype == nil {
		return 0
	}
	price := route.DistanceKM * subtype.RatePerKM
	if price < subtype.MinPrice {
		price = subtype.MinPrice
	}
	return round2(price)
}

// TicketPricing computes the discount and final price of a ticket
// against an optional offer. A nil offer means full price.
func (s *PricingService) TicketPricing(basePrice float64, offer *models.Offer, at time.Time) (discount, finalPrice float64, err error) {
	if basePrice < 0 {
		return 0, 0, domain.NewValidationError("base_price", "must not be negative")
	}
	if offer == nil {
		return 0, round2(basePrice), nil
	}
	if err := offer.CanApply(basePrice, at); err != nil {
		return 0, 0, domain.NewValidationError("offer_code", err.Error())
	}
	discount = round2(offer.DiscountFor(basePrice))
	return discount, round2(basePrice - discount), nil
}

// EstimateArrival projects the arrival time of a charter leg from its
// distance at the configured average speed.
func (s *PricingService) EstimateArrival(departure time.Time, distanceKM float64) time.Time {
	speed := s.config.AverageSpeedKMH
	if speed <= 0 {
		speed = 60
	}
	hours := distanceKM / speed
	return departure.Add(time.Duration(hours * float64(time.Hour)))
}

// QuoteReservation fills the derived pricing fields of a reservation
// from the vehicle subtype's rates and returns the full breakdown.
// The reservation's pricing inputs (season factor, driver allowance,
// demand surcharge, discount) must already be set.
func (s *PricingService) QuoteReservation(res *models.SpecialReservation, subtype *models.VehicleSubtype) models.Quote {
	if subtype == nil || res.DistanceKM <= 0 {
		res.BasePrice = 0
		res.FinalPrice = 0
		return models.Quote{}
	}

	perDay := res.DistanceKM * subtype.RatePerKM
	if perDay < subtype.MinPrice {
		perDay = subtype.MinPrice
	}

	basePrice := perDay * float64(res.DurationDays)

	if res.DurationDays > 1 {
		res.MultiDaySurcharge = res.DriverAllowance * float64(res.DurationDays-1)
	} else {
		res.MultiDaySurcharge = 0
	}

	if res.SeasonFactor > 0 {
		basePrice *= res.SeasonFactor
	}

	tripFactor := 1.0
	if res.IsRoundTrip {
		tripFactor = roundTripFactor
		basePrice *= roundTripFactor
	}

	res.DistanceSurcharge = round2(s.policy.DistanceSurcharge(basePrice, res.DistanceKM))
	res.TimeSurcharge = round2(s.policy.TimeSurcharge(basePrice, res.DepartureTime))

	res.BasePrice = round2(basePrice)
	res.FinalPrice = round2(res.BasePrice +
		res.DistanceSurcharge +
		res.TimeSurcharge +
		res.DemandSurcharge +
		res.MultiDaySurcharge -
		res.DiscountAmount)

	res.BalanceAmount = round2(res.FinalPrice - res.DepositAmount)
	if res.BalanceAmount < 0 {
		res.BalanceAmount = 0
	}
	res.IsFullyPaid = res.DepositAmount >= res.FinalPrice

	return models.Quote{
		PerDayCharge:      round2(perDay),
		BasePrice:         res.BasePrice,
		MultiDaySurcharge: res.MultiDaySurcharge,
		SeasonFactor:      res.SeasonFactor,
		RoundTripFactor:   tripFactor,
		DistanceSurcharge: res.DistanceSurcharge,
		TimeSurcharge:     res.TimeSurcharge,
		DemandSurcharge:   res.DemandSurcharge,
		DiscountAmount:    res.DiscountAmount,
		FinalPrice:        res.FinalPrice,
		DepositAmount:     res.DepositAmount,
		BalanceAmount:     res.BalanceAmount,
	}
}

// ApplyPayment records a payment against a reservation, updating the
// deposit total, balance and fully-paid flag. Paying more than the
// outstanding balance is rejected.
func (s *PricingService) ApplyPayment(res *models.SpecialReservation, amount float64, at time.Time) error {
	if amount <= 0 {
		return domain.NewValidationError("amount", "must be positive")
	}
	if res.DepositAmount+amount > res.FinalPrice {
		return domain.NewStateError("reservation", string(res.Status), "payment exceeds outstanding balance")
	}

	res.DepositAmount = round2(res.DepositAmount + amount)
	res.DepositPaidDate = &at
	res.BalanceAmount = round2(res.FinalPrice - res.DepositAmount)
	if res.BalanceAmount < 0 {
		res.BalanceAmount = 0
	}
	res.IsFullyPaid = res.BalanceAmount <= 0
	return nil
}
