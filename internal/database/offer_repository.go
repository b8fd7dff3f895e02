package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// OfferRepository handles database operations for the offers table
type OfferRepository struct {
	db DB
}

// NewOfferRepository creates a new OfferRepository
func NewOfferRepository(db DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create inserts a new offer
func (r *OfferRepository) Create(offer *models.Offer) error {
	query := `
		INSERT INTO offers (
			id, code, description, discount_type, discount_value,
			min_purchase_amount, max_discount_amount, valid_from, valid_until,
			usage_limit, usage_count, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		offer.ID, offer.Code, offer.Description, offer.DiscountType,
		offer.DiscountValue, offer.MinPurchaseAmount, offer.MaxDiscountAmount,
		offer.ValidFrom, offer.ValidUntil, offer.UsageLimit, offer.UsageCount,
		offer.IsActive,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
}

// GetByCode retrieves an offer by its code
func (r *OfferRepository) GetByCode(code string) (*models.Offer, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value,
			   min_purchase_amount, max_discount_amount, valid_from, valid_until,
			   usage_limit, usage_count, is_active, created_at, updated_at
		FROM offers
		WHERE code = $1
	`

	offer := &models.Offer{}
	if err := r.db.Get(offer, query, code); err != nil {
		return nil, err
	}
	return offer, nil
}

// GetByCodeForUpdateTx retrieves an offer by code inside a transaction
// with a row lock, so usage counting under concurrent bookings is exact.
func (r *OfferRepository) GetByCodeForUpdateTx(tx *sqlx.Tx, code string) (*models.Offer, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value,
			   min_purchase_amount, max_discount_amount, valid_from, valid_until,
			   usage_limit, usage_count, is_active, created_at, updated_at
		FROM offers
		WHERE code = $1
		FOR UPDATE
	`

	offer := &models.Offer{}
	if err := tx.Get(offer, query, code); err != nil {
		return nil, err
	}
	return offer, nil
}

// IncrementUsageTx bumps an offer's usage count inside a transaction
func (r *OfferRepository) IncrementUsageTx(tx *sqlx.Tx, offerID string) error {
	query := `UPDATE offers SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1`

	result, err := tx.Exec(query, offerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("offer %s not found", offerID)
	}
	return nil
}

// List retrieves all offers, newest first
func (r *OfferRepository) List() ([]models.Offer, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value,
			   min_purchase_amount, max_discount_amount, valid_from, valid_until,
			   usage_limit, usage_count, is_active, created_at, updated_at
		FROM offers
		ORDER BY created_at DESC
	`

	offers := []models.Offer{}
	if err := r.db.Select(&offers, query); err != nil {
		return nil, err
	}
	return offers, nil
}
