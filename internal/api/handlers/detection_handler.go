package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/features"
	"github.com/inferwatch/backend/internal/inference/detection"
	"github.com/inferwatch/backend/internal/metrics"
	"github.com/inferwatch/backend/pkg/logger"
)

// DetectionService is the narrow contract of the upstream object detector.
type DetectionService interface {
	Detect(ctx context.Context, filename string, image []byte) (*detection.Result, error)
	ModelInfo(ctx context.Context) (map[string]interface{}, error)
	Health(ctx context.Context) error
}

type DetectionHandler struct {
	svc     DetectionService
	monitor *drift.Monitor[features.DetectionFeatures]
	meter   *drift.Meter
	store   Store
	cache   SnapshotCache
}

func NewDetectionHandler(svc DetectionService, monitor *drift.Monitor[features.DetectionFeatures],
	meter *drift.Meter, store Store, cache SnapshotCache) *DetectionHandler {
	return &DetectionHandler{
		svc:     svc,
		monitor: monitor,
		meter:   meter,
		store:   store,
		cache:   cache,
	}
}

func (h *DetectionHandler) HandleInfer(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open uploaded file",
		})
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	stats, err := features.ExtractImageStats(data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported or corrupt image",
		})
	}

	start := time.Now()
	result, err := h.svc.Detect(c.Context(), fileHeader.Filename, data)
	if err != nil {
		// failed inferences must not pollute drift statistics
		metrics.InferenceTotal.WithLabelValues(DomainDetection, "error").Inc()
		logger.Error("Detection inference failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Detection inference failed",
		})
	}
	latency := time.Since(start)

	boxes := make([]features.Box, len(result.Detections))
	for i, d := range result.Detections {
		boxes[i] = features.Box{
			X1:         d.BoundingBox.X1,
			Y1:         d.BoundingBox.Y1,
			X2:         d.BoundingBox.X2,
			Y2:         d.BoundingBox.Y2,
			Confidence: d.Confidence,
		}
	}
	record := features.ExtractDetection(stats, boxes, result.VRAMAllocated)

	baselineUnset := h.meter.Baseline() == nil
	distance := h.meter.Observe(record.EmbeddingProxy[:])
	outcome := h.monitor.Observe(c.Context(), record)

	metrics.InferenceTotal.WithLabelValues(DomainDetection, "success").Inc()
	metrics.InferenceLatency.WithLabelValues(DomainDetection).Observe(latency.Seconds())
	metrics.ImageBrightness.WithLabelValues(DomainDetection).Set(record.Brightness)
	metrics.BrightnessHistogram.WithLabelValues(DomainDetection).Observe(record.Brightness)
	metrics.VRAMAllocated.Set(result.VRAMAllocated)
	metrics.EmbeddingDriftDistance.WithLabelValues(DomainDetection).Set(distance)
	metrics.RecordDriftReport(DomainDetection, outcome.Report)

	persistInference(c.Context(), h.store, h.cache, DomainDetection, latency,
		record.Brightness, record, outcome)
	snapshotBaseline(c.Context(), h.cache, DomainDetection, h.meter, baselineUnset)

	return c.JSON(fiber.Map{
		"detections":      result.Detections,
		"total_objects":   record.NumDetections,
		"avg_confidence":  record.AvgConfidence,
		"device":          result.Device,
		"brightness":      record.Brightness,
		"embedding_drift": distance,
		"features":        record,
		"evidently_drift": outcome,
	})
}

func (h *DetectionHandler) ModelInfo(c *fiber.Ctx) error {
	info, err := h.svc.ModelInfo(c.Context())
	if err != nil {
		logger.Error("Failed to fetch detection model info", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch model info",
		})
	}
	return c.JSON(info)
}

func (h *DetectionHandler) Health(c *fiber.Ctx) error {
	stats := h.monitor.Stats()

	if err := h.svc.Health(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"service": DomainDetection,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": DomainDetection,
		"drift_detector": fiber.Map{
			"reference_samples": stats.ReferenceSize,
			"current_samples":   stats.CurrentSize,
			"drift_detected":    stats.DriftDetected,
		},
	})
}
