package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/internal/services"
)

type OfferHandler struct {
	offerService *services.OfferService
	logger       *logrus.Logger
}

func NewOfferHandler(offerService *services.OfferService, logger *logrus.Logger) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		logger:       logger,
	}
}

// CreateOffer registers a promotional code
// POST /api/v1/offers
func (h *OfferHandler) CreateOffer(c *gin.Context) {
	var req models.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	offer, err := h.offerService.CreateOffer(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// ListOffers retrieves all offers
// GET /api/v1/offers
func (h *OfferHandler) ListOffers(c *gin.Context) {
	offers, err := h.offerService.ListOffers()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, offers)
}

// ValidateOffer reports whether a code applies to an amount
// POST /api/v1/offers/validate
func (h *OfferHandler) ValidateOffer(c *gin.Context) {
	var req models.ValidateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.offerService.ValidateOffer(&req, time.Now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
