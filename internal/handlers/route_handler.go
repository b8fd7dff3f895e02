package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/database"
	"github.com/himaltransit/fleet-booking-backend/internal/models"
)

type RouteHandler struct {
	routeRepo *database.RouteRepository
	logger    *logrus.Logger
}

func NewRouteHandler(routeRepo *database.RouteRepository, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{
		routeRepo: routeRepo,
		logger:    logger,
	}
}

// CreateRoute registers a route
// POST /api/v1/routes
func (h *RouteHandler) CreateRoute(c *gin.Context) {
	var req models.CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route := &models.Route{
		Name:                     req.Name,
		Source:                   req.Source,
		Destination:              req.Destination,
		DistanceKM:               req.DistanceKM,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
	}
	if err := h.routeRepo.Create(route); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, route)
}

// ListRoutes retrieves all routes
// GET /api/v1/routes
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	routes, err := h.routeRepo.List()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, routes)
}

// GetRoute retrieves a route by ID
// GET /api/v1/routes/:id
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeRepo.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, route)
}
