package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	seatService     *services.SeatService
	logger          *logrus.Logger
}

func NewScheduleHandler(
	scheduleService *services.ScheduleService,
	seatService *services.SeatService,
	logger *logrus.Logger,
) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		seatService:     seatService,
		logger:          logger,
	}
}

// CreateSchedule publishes a trip
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	schedule, err := h.scheduleService.CreateSchedule(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// ListSchedules retrieves schedules, optionally filtered
// GET /api/v1/schedules?route_id=...&status=SCHEDULED
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.scheduleService.ListSchedules(c.Query("route_id"), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// GetSchedule retrieves a schedule by ID
// GET /api/v1/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.scheduleService.GetSchedule(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// UpdateSchedule edits a schedule
// PUT /api/v1/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	schedule, err := h.scheduleService.UpdateSchedule(c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// CompleteSchedule finishes a trip and releases its seats
// POST /api/v1/schedules/:id/complete
func (h *ScheduleHandler) CompleteSchedule(c *gin.Context) {
	schedule, err := h.scheduleService.CompleteSchedule(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// GetSeats retrieves the seat availability grid of a schedule
// GET /api/v1/schedules/:id/seats
func (h *ScheduleHandler) GetSeats(c *gin.Context) {
	seatMap, err := h.seatService.SeatMap(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, seatMap)
}
