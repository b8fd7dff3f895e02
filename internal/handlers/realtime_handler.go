package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/himaltransit/fleet-booking-backend/internal/middleware"
	"github.com/himaltransit/fleet-booking-backend/pkg/realtime"
)

type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *logrus.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *logrus.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		logger: logger,
	}
}

// Serve upgrades the connection and subscribes it to the requested
// topics, e.g. /ws?topics=seats:abc,vehicle:def
// GET /ws
func (h *RealtimeHandler) Serve(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var topics []string
	if raw := c.Query("topics"); raw != "" {
		topics = strings.Split(raw, ",")
	}

	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Websocket upgrade failed"})
		return
	}

	realtime.NewClient(h.hub, conn, userCtx.CustomerID, topics)
}

// Status reports hub connection stats
// GET /api/v1/realtime/status
func (h *RealtimeHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": h.hub.ClientCount(),
	})
}
