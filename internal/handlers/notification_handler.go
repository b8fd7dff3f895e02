package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/middleware"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logrus.Logger
}

func NewNotificationHandler(notificationService *services.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// recipientFor resolves which inbox a request reads: staff accounts get
// their staff inbox, customers their own.
func recipientFor(userCtx middleware.UserContext) models.Recipient {
	if userCtx.IsStaff() {
		return models.Recipient{Type: models.RecipientTypeStaff, ID: userCtx.CustomerID}
	}
	return models.Recipient{Type: models.RecipientTypeCustomer, ID: userCtx.CustomerID}
}

// List retrieves the authenticated account's notifications
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	notifications, unread, err := h.notificationService.Inbox(recipientFor(userCtx))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.notificationService.MarkRead(c.Param("id"), recipientFor(userCtx)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead marks every unread notification as read
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	count, err := h.notificationService.MarkAllRead(recipientFor(userCtx))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": count})
}
