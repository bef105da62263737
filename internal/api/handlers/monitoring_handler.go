package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/pkg/logger"
)

// MonitoringHandler serves the drift read views for one domain. Both domains
// get an identical instance of this handler; the windowing state machine
// behind it is shared code.
type MonitoringHandler struct {
	domain  string
	monitor drift.Service
	meter   *drift.Meter
	store   Store
}

func NewMonitoringHandler(domain string, monitor drift.Service, meter *drift.Meter, store Store) *MonitoringHandler {
	return &MonitoringHandler{
		domain:  domain,
		monitor: monitor,
		meter:   meter,
		store:   store,
	}
}

func (h *MonitoringHandler) DriftStatus(c *fiber.Ctx) error {
	return c.JSON(h.monitor.Summary())
}

func (h *MonitoringHandler) DriftSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"drift_summary":  h.monitor.Summary(),
		"detector_stats": h.monitor.Stats(),
	})
}

// ResetReference promotes recent traffic to be the new baseline and clears
// the embedding baseline alongside it.
func (h *MonitoringHandler) ResetReference(c *fiber.Ctx) error {
	h.monitor.ResetReference()
	h.meter.Reset()

	return c.JSON(fiber.Map{
		"status":         "success",
		"message":        "Reference dataset reset successfully",
		"detector_stats": h.monitor.Stats(),
	})
}

func (h *MonitoringHandler) DataQuality(c *fiber.Ctx) error {
	return c.JSON(h.monitor.DataQuality())
}

func (h *MonitoringHandler) History(c *fiber.Ctx) error {
	if h.store == nil {
		return c.JSON(fiber.Map{"history": []interface{}{}})
	}

	limit := c.QueryInt("limit", 50)
	records, err := h.store.RecentInferences(h.domain, limit)
	if err != nil {
		logger.Error("Failed to load inference history",
			zap.String("domain", h.domain), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load inference history",
		})
	}

	return c.JSON(fiber.Map{"history": records})
}
