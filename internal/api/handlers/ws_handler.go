package handlers

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/pkg/logger"
)

// DriftStreamHandler pushes the drift summary view over a websocket on a
// fixed interval, so dashboards can follow warm-up and drift without
// polling.
type DriftStreamHandler struct {
	services map[string]drift.Service
	interval time.Duration
}

func NewDriftStreamHandler(services map[string]drift.Service) *DriftStreamHandler {
	return &DriftStreamHandler{
		services: services,
		interval: 2 * time.Second,
	}
}

func (h *DriftStreamHandler) HandleConnection(c *websocket.Conn) {
	domain := c.Params("domain")

	defer func() {
		c.Close()
		logger.Info("Drift stream closed", zap.String("domain", domain))
	}()

	svc, ok := h.services[domain]
	if !ok {
		c.WriteJSON(map[string]interface{}{
			"type":  "error",
			"error": "unknown domain",
		})
		return
	}

	logger.Info("Drift stream opened", zap.String("domain", domain))

	// drain client frames so a close is noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.send(c, domain, svc); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := h.send(c, domain, svc); err != nil {
				return
			}
		}
	}
}

func (h *DriftStreamHandler) send(c *websocket.Conn, domain string, svc drift.Service) error {
	return c.WriteJSON(map[string]interface{}{
		"type":    "drift_status",
		"domain":  domain,
		"summary": svc.Summary(),
	})
}
