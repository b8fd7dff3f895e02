package models

import (
	"errors"
	"time"
)

// NotificationKind categorizes what a notification is about
type NotificationKind string

const (
	NotificationReservationCreated   NotificationKind = "reservation_created"
	NotificationReservationApproved  NotificationKind = "reservation_approved"
	NotificationReservationRejected  NotificationKind = "reservation_rejected"
	NotificationReservationCompleted NotificationKind = "reservation_completed"
	NotificationPaymentReceived      NotificationKind = "payment_received"
	NotificationScheduleConflict     NotificationKind = "schedule_conflict"
	NotificationVehicleMaintenance   NotificationKind = "vehicle_maintenance"
	NotificationSystem               NotificationKind = "system"
)

// RecipientType identifies which kind of account receives a notification
type RecipientType string

const (
	RecipientTypeCustomer RecipientType = "CUSTOMER"
	RecipientTypeStaff    RecipientType = "STAFF"
)

// Recipient is a tagged reference to either a customer or a staff
// account.
type Recipient struct {
	Type RecipientType `json:"type" db:"recipient_type"`
	ID   string        `json:"id" db:"recipient_id"`
}

// Validate checks the recipient reference is well formed
func (r *Recipient) Validate() error {
	if r.ID == "" {
		return errors.New("recipient id is required")
	}
	if r.Type != RecipientTypeCustomer && r.Type != RecipientTypeStaff {
		return errors.New("recipient type must be CUSTOMER or STAFF")
	}
	return nil
}

// Notification represents a message delivered to an account's inbox.
// RelatedKind and RelatedID point at the entity the message is about.
type Notification struct {
	ID          string           `json:"id" db:"id"`
	Recipient   Recipient        `json:"recipient"`
	Kind        NotificationKind `json:"kind" db:"kind"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	RelatedKind *string          `json:"related_kind,omitempty" db:"related_kind"`
	RelatedID   *string          `json:"related_id,omitempty" db:"related_id"`
	DeviceID    *string          `json:"device_id,omitempty" db:"device_id"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	ReadAt      *time.Time       `json:"read_at,omitempty" db:"read_at"`
}
