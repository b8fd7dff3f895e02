package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/domain"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

const defaultInboxLimit = 50

// NotificationService delivers inbox notifications to customers and
// back-office staff. Delivery failures are logged, never propagated:
// a lost notification must not fail the operation that caused it.
type NotificationService struct {
	notificationRepo *database.NotificationRepository
	customerRepo     *database.CustomerRepository
	logger           *logrus.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo *database.NotificationRepository,
	customerRepo *database.CustomerRepository,
	logger *logrus.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		customerRepo:     customerRepo,
		logger:           logger,
	}
}

// NotifyCustomer sends a notification to one customer
func (s *NotificationService) NotifyCustomer(customerID string, kind models.NotificationKind, title, message string, relatedKind, relatedID *string) {
	n := &models.Notification{
		Recipient:   models.Recipient{Type: models.RecipientTypeCustomer, ID: customerID},
		Kind:        kind,
		Title:       title,
		Message:     message,
		RelatedKind: relatedKind,
		RelatedID:   relatedID,
	}
	if err := s.notificationRepo.Create(n); err != nil {
		s.logger.WithFields(logrus.Fields{
			"customer_id": customerID,
			"kind":        kind,
		}).WithError(err).Error("Failed to deliver customer notification")
	}
}

// NotifyStaff fans a notification out to every active staff account
func (s *NotificationService) NotifyStaff(kind models.NotificationKind, title, message string, relatedKind, relatedID *string) {
	staff, err := s.customerRepo.ListStaff()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list staff for notification")
		return
	}

	for i := range staff {
		n := &models.Notification{
			Recipient:   models.Recipient{Type: models.RecipientTypeStaff, ID: staff[i].ID},
			Kind:        kind,
			Title:       title,
			Message:     message,
			RelatedKind: relatedKind,
			RelatedID:   relatedID,
		}
		if err := s.notificationRepo.Create(n); err != nil {
			s.logger.WithFields(logrus.Fields{
				"staff_id": staff[i].ID,
				"kind":     kind,
			}).WithError(err).Error("Failed to deliver staff notification")
		}
	}
}

// Inbox returns a recipient's notifications with the unread count
func (s *NotificationService) Inbox(recipient models.Recipient) ([]models.Notification, int, error) {
	if err := recipient.Validate(); err != nil {
		return nil, 0, domain.NewValidationError("recipient", err.Error())
	}

	notifications, err := s.notificationRepo.ListForRecipient(recipient, defaultInboxLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnread(recipient)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return notifications, unread, nil
}

// MarkRead marks one notification of a recipient as read
func (s *NotificationService) MarkRead(notificationID string, recipient models.Recipient) error {
	if err := s.notificationRepo.MarkRead(notificationID, recipient); err != nil {
		return domain.NewNotFoundError("notification", notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification of a recipient as read
func (s *NotificationService) MarkAllRead(recipient models.Recipient) (int, error) {
	count, err := s.notificationRepo.MarkAllRead(recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return count, nil
}

// PurgeOldRead removes read notifications older than the cutoff and
// returns how many were deleted.
func (s *NotificationService) PurgeOldRead(cutoff time.Time) (int, error) {
	count, err := s.notificationRepo.DeleteOldRead(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}
	return count, nil
}
