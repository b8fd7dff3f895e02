package models

import (
	"errors"
	"time"
)

// DiscountType identifies how an offer's discount is computed
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

// Offer represents a promotional discount applied at ticket purchase
type Offer struct {
	ID                string       `json:"id" db:"id"`
	Code              string       `json:"code" db:"code"`
	Description       *string      `json:"description,omitempty" db:"description"`
	DiscountType      DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue     float64      `json:"discount_value" db:"discount_value"`
	MinPurchaseAmount float64      `json:"min_purchase_amount" db:"min_purchase_amount"`
	MaxDiscountAmount *float64     `json:"max_discount_amount,omitempty" db:"max_discount_amount"`
	ValidFrom         time.Time    `json:"valid_from" db:"valid_from"`
	ValidUntil        time.Time    `json:"valid_until" db:"valid_until"`
	UsageLimit        *int         `json:"usage_limit,omitempty" db:"usage_limit"`
	UsageCount        int          `json:"usage_count" db:"usage_count"`
	IsActive          bool         `json:"is_active" db:"is_active"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at" db:"updated_at"`
}

// CanApply reports whether the offer may be used against the given
// purchase amount at time t, with the reason when it cannot.
func (o *Offer) CanApply(amount float64, t time.Time) error {
	if !o.IsActive {
		return errors.New("offer is not active")
	}
	if t.Before(o.ValidFrom) {
		return errors.New("offer is not yet valid")
	}
	if t.After(o.ValidUntil) {
		return errors.New("offer has expired")
	}
	if o.UsageLimit != nil && o.UsageCount >= *o.UsageLimit {
		return errors.New("offer usage limit reached")
	}
	if amount < o.MinPurchaseAmount {
		return errors.New("purchase amount below offer minimum")
	}
	return nil
}

// DiscountFor computes the discount the offer grants against a base
// amount. Percentage discounts are capped by MaxDiscountAmount when set;
// no discount ever exceeds the base amount or drops below zero.
func (o *Offer) DiscountFor(base float64) float64 {
	if base <= 0 {
		return 0
	}

	var discount float64
	switch o.DiscountType {
	case DiscountTypePercentage:
		discount = base * o.DiscountValue / 100
		if o.MaxDiscountAmount != nil && discount > *o.MaxDiscountAmount {
			discount = *o.MaxDiscountAmount
		}
	case DiscountTypeFixed:
		discount = o.DiscountValue
	}

	if discount > base {
		discount = base
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// CreateOfferRequest represents the request to create an offer
type CreateOfferRequest struct {
	Code              string       `json:"code" binding:"required"`
	Description       *string      `json:"description,omitempty"`
	DiscountType      DiscountType `json:"discount_type" binding:"required"`
	DiscountValue     float64      `json:"discount_value" binding:"required"`
	MinPurchaseAmount float64      `json:"min_purchase_amount"`
	MaxDiscountAmount *float64     `json:"max_discount_amount,omitempty"`
	ValidFrom         time.Time    `json:"valid_from" binding:"required"`
	ValidUntil        time.Time    `json:"valid_until" binding:"required"`
	UsageLimit        *int         `json:"usage_limit,omitempty"`
}

// Validate validates the create offer request
func (r *CreateOfferRequest) Validate() error {
	switch r.DiscountType {
	case DiscountTypePercentage:
		if r.DiscountValue <= 0 || r.DiscountValue > 100 {
			return errors.New("percentage discount_value must be between 0 and 100")
		}
	case DiscountTypeFixed:
		if r.DiscountValue <= 0 {
			return errors.New("fixed discount_value must be positive")
		}
	default:
		return errors.New("discount_type must be PERCENTAGE or FIXED")
	}
	if !r.ValidUntil.After(r.ValidFrom) {
		return errors.New("valid_until must be after valid_from")
	}
	if r.MinPurchaseAmount < 0 {
		return errors.New("min_purchase_amount must not be negative")
	}
	if r.MaxDiscountAmount != nil && *r.MaxDiscountAmount <= 0 {
		return errors.New("max_discount_amount must be positive")
	}
	return nil
}

// ValidateOfferRequest asks whether a code applies to an amount
type ValidateOfferRequest struct {
	Code   string  `json:"code" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

// ValidateOfferResponse carries the computed discount for a code
type ValidateOfferResponse struct {
	Valid       bool    `json:"valid"`
	Reason      string  `json:"reason,omitempty"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"final_amount"`
}
