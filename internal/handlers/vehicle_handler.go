package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type VehicleHandler struct {
	vehicleService *services.VehicleService
	availability   *services.AvailabilityService
	logger         *logrus.Logger
}

func NewVehicleHandler(
	vehicleService *services.VehicleService,
	availability *services.AvailabilityService,
	logger *logrus.Logger,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		availability:   availability,
		logger:         logger,
	}
}

// CreateVehicle registers a vehicle
// POST /api/v1/vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req models.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

// ListVehicles retrieves vehicles, optionally filtered by status
// GET /api/v1/vehicles?status=ACTIVE
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.vehicleService.ListVehicles(c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, vehicles)
}

// GetVehicle retrieves a vehicle by ID
// GET /api/v1/vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.GetVehicle(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// UpdateStatus applies a manual vehicle status change
// PATCH /api/v1/vehicles/:id/status
func (h *VehicleHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateVehicleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	vehicle, err := h.vehicleService.UpdateStatus(c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// CheckAvailability reports whether a vehicle is free for a window
// GET /api/v1/vehicles/:id/availability?start=...&end=...
func (h *VehicleHandler) CheckAvailability(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	vehicleID := c.Param("id")
	conflict, err := h.availability.CheckAvailability(vehicleID, start, end, services.AvailabilityOptions{})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityResult{
		VehicleID: vehicleID,
		Available: conflict == nil,
		Conflict:  conflict,
	})
}

// ListAvailable finds vehicles free for a window
// GET /api/v1/vehicles/available?start=...&end=...&min_capacity=30
func (h *VehicleHandler) ListAvailable(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	minCapacity := 0
	if raw := c.Query("min_capacity"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_capacity must be a non-negative integer"})
			return
		}
		minCapacity = parsed
	}

	vehicles, err := h.availability.FindAvailableVehicles(start, end, minCapacity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, vehicles)
}

// CreateType registers a vehicle type
// POST /api/v1/vehicle-types
func (h *VehicleHandler) CreateType(c *gin.Context) {
	var vehicleType models.VehicleType
	if err := c.ShouldBindJSON(&vehicleType); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.vehicleService.CreateType(&vehicleType); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, vehicleType)
}

// CreateSubtype registers a vehicle subtype with its pricing parameters
// POST /api/v1/vehicle-subtypes
func (h *VehicleHandler) CreateSubtype(c *gin.Context) {
	var subtype models.VehicleSubtype
	if err := c.ShouldBindJSON(&subtype); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.vehicleService.CreateSubtype(&subtype); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, subtype)
}

// ListSubtypes retrieves all vehicle subtypes
// GET /api/v1/vehicle-subtypes
func (h *VehicleHandler) ListSubtypes(c *gin.Context) {
	subtypes, err := h.vehicleService.ListSubtypes()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, subtypes)
}

// parseWindow reads the start and end query parameters as RFC 3339
// timestamps, answering 400 itself when they are missing or malformed.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC 3339 timestamp"})
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be an RFC 3339 timestamp"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
