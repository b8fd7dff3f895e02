package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/middleware"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type TicketHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

func NewTicketHandler(bookingService *services.BookingService, logger *logrus.Logger) *TicketHandler {
	return &TicketHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// BookTicket books a seat on a schedule for the authenticated customer
// POST /api/v1/tickets
func (h *TicketHandler) BookTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.BookTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ticket, err := h.bookingService.BookTicket(userCtx.CustomerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// CancelTicket cancels a ticket. Customers may only cancel their own.
// POST /api/v1/tickets/:id/cancel
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CancelTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	ticket, err := h.bookingService.CancelTicket(c.Param("id"), userCtx.CustomerID, userCtx.IsStaff(), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ConfirmTicket confirms a reserved ticket
// POST /api/v1/tickets/:id/confirm
func (h *TicketHandler) ConfirmTicket(c *gin.Context) {
	ticket, err := h.bookingService.ConfirmTicket(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ListMine retrieves the authenticated customer's tickets
// GET /api/v1/tickets/mine
func (h *TicketHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	tickets, err := h.bookingService.ListMine(userCtx.CustomerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// GetTicket retrieves a ticket by ID
// GET /api/v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	ticket, err := h.bookingService.GetTicket(c.Param("id"), userCtx.CustomerID, userCtx.IsStaff())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}
