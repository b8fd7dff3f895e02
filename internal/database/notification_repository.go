package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

// NotificationRepository handles database operations for the
// notifications table
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_type, recipient_id, kind, title, message,
			related_kind, related_id, device_id, is_read
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	return r.db.QueryRow(
		query,
		n.ID, n.Recipient.Type, n.Recipient.ID, n.Kind, n.Title, n.Message,
		n.RelatedKind, n.RelatedID, n.DeviceID, n.IsRead,
	).Scan(&n.CreatedAt)
}

// ListForRecipient retrieves the notifications of one recipient, newest
// first, capped at limit.
func (r *NotificationRepository) ListForRecipient(recipient models.Recipient, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, recipient_type AS "recipient.recipient_type",
			   recipient_id AS "recipient.recipient_id",
			   kind, title, message, related_kind, related_id, device_id,
			   is_read, created_at, read_at
		FROM notifications
		WHERE recipient_type = $1 AND recipient_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	notifications := []models.Notification{}
	if err := r.db.Select(&notifications, query, recipient.Type, recipient.ID, limit); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications of a recipient
func (r *NotificationRepository) CountUnread(recipient models.Recipient) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_type = $1 AND recipient_id = $2 AND is_read = FALSE
	`

	var count int
	if err := r.db.Get(&count, query, recipient.Type, recipient.ID); err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks one notification of a recipient as read
func (r *NotificationRepository) MarkRead(notificationID string, recipient models.Recipient) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND recipient_type = $2 AND recipient_id = $3 AND is_read = FALSE
	`

	result, err := r.db.Exec(query, notificationID, recipient.Type, recipient.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification %s not found or already read", notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification of a recipient as read and
// returns how many changed.
func (r *NotificationRepository) MarkAllRead(recipient models.Recipient) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE recipient_type = $1 AND recipient_id = $2 AND is_read = FALSE
	`

	result, err := r.db.Exec(query, recipient.Type, recipient.ID)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

// DeleteOldRead purges read notifications older than the cutoff and
// returns how many were removed.
func (r *NotificationRepository) DeleteOldRead(cutoff time.Time) (int, error) {
	query := `DELETE FROM notifications WHERE is_read = TRUE AND created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}
