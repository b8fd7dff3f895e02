package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/middleware"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type ReservationHandler struct {
	reservationService *services.ReservationService
	logger             *logrus.Logger
}

func NewReservationHandler(reservationService *services.ReservationService, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// CreateReservation requests a charter reservation
// POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.reservationService.CreateReservation(userCtx.CustomerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, reservation)
}

// QuoteReservation prices a charter request without persisting it
// POST /api/v1/reservations/quote
func (h *ReservationHandler) QuoteReservation(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quote, err := h.reservationService.QuoteReservation(userCtx.CustomerID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ListMine retrieves the authenticated customer's reservations
// GET /api/v1/reservations/mine
func (h *ReservationHandler) ListMine(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	reservations, err := h.reservationService.ListMine(userCtx.CustomerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// List retrieves reservations, optionally filtered by status
// GET /api/v1/reservations?status=REQUESTED
func (h *ReservationHandler) List(c *gin.Context) {
	var status *models.ReservationStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ReservationStatus(raw)
		status = &s
	}

	reservations, err := h.reservationService.List(status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// Get retrieves a reservation by ID
// GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	reservation, err := h.reservationService.Get(c.Param("id"), userCtx.CustomerID, userCtx.IsStaff())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Approve approves a requested reservation
// POST /api/v1/reservations/:id/approve
func (h *ReservationHandler) Approve(c *gin.Context) {
	reservation, err := h.reservationService.Approve(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Reject rejects a requested reservation with a reason
// POST /api/v1/reservations/:id/reject
func (h *ReservationHandler) Reject(c *gin.Context) {
	var req models.RejectReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.reservationService.Reject(c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Complete finishes an approved reservation and releases the vehicle
// POST /api/v1/reservations/:id/complete
func (h *ReservationHandler) Complete(c *gin.Context) {
	reservation, err := h.reservationService.Complete(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// Cancel cancels a reservation. Customers may only cancel their own.
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	reservation, err := h.reservationService.Cancel(c.Param("id"), userCtx.CustomerID, userCtx.IsStaff())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

// RecordPayment records a deposit or balance payment
// POST /api/v1/reservations/:id/payments
func (h *ReservationHandler) RecordPayment(c *gin.Context) {
	var req models.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.reservationService.RecordPayment(c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}
