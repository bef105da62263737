package handlers

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/features"
	"github.com/inferwatch/backend/internal/inference/vqa"
	"github.com/inferwatch/backend/internal/metrics"
	"github.com/inferwatch/backend/pkg/logger"
)

// VQAService is the narrow contract of the upstream question-answering
// model.
type VQAService interface {
	Answer(ctx context.Context, filename string, image []byte, question string, maxLength, numBeams int) (*vqa.Result, error)
	ModelInfo(ctx context.Context) (map[string]interface{}, error)
	Health(ctx context.Context) error
}

type VQAHandler struct {
	svc     VQAService
	monitor *drift.Monitor[features.VQAFeatures]
	meter   *drift.Meter
	store   Store
	cache   SnapshotCache
}

func NewVQAHandler(svc VQAService, monitor *drift.Monitor[features.VQAFeatures],
	meter *drift.Meter, store Store, cache SnapshotCache) *VQAHandler {
	return &VQAHandler{
		svc:     svc,
		monitor: monitor,
		meter:   meter,
		store:   store,
		cache:   cache,
	}
}

func (h *VQAHandler) HandleInfer(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image file is required",
		})
	}

	question := c.FormValue("question")
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	maxLength, _ := strconv.Atoi(c.FormValue("max_length"))
	numBeams, _ := strconv.Atoi(c.FormValue("num_beams"))

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
	result, err := h.svc.Answer(c.Context(), fileHeader.Filename, data, question, maxLength, numBeams)
	if err != nil {
		// failed inferences must not pollute drift statistics
		metrics.InferenceTotal.WithLabelValues(DomainVQA, "error").Inc()
		logger.Error("VQA inference failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "VQA inference failed",
		})
	}
	latency := time.Since(start)

	record := features.ExtractVQA(stats, question, result.Answer, latency)

	// question word-count trio doubles as the embedding proxy for the
	// memoryless distance signal in this domain
	proxy := []float64{
		float64(record.QuestionLength),
		float64(record.QuestionTokens),
		float64(record.AnswerLength),
		record.Brightness,
	}
	baselineUnset := h.meter.Baseline() == nil
	distance := h.meter.Observe(proxy)
	outcome := h.monitor.Observe(c.Context(), record)

	metrics.InferenceTotal.WithLabelValues(DomainVQA, "success").Inc()
	metrics.InferenceLatency.WithLabelValues(DomainVQA).Observe(latency.Seconds())
	metrics.ImageBrightness.WithLabelValues(DomainVQA).Set(record.Brightness)
	metrics.BrightnessHistogram.WithLabelValues(DomainVQA).Observe(record.Brightness)
	metrics.EmbeddingDriftDistance.WithLabelValues(DomainVQA).Set(distance)
	metrics.QuestionLength.Observe(float64(record.QuestionLength))
	metrics.AnswerLength.Observe(float64(record.AnswerLength))
	metrics.QuestionTypeTotal.WithLabelValues(record.QuestionType).Inc()
	metrics.RecordDriftReport(DomainVQA, outcome.Report)

	persistInference(c.Context(), h.store, h.cache, DomainVQA, latency,
		record.Brightness, record, outcome)
	snapshotBaseline(c.Context(), h.cache, DomainVQA, h.meter, baselineUnset)

	return c.JSON(fiber.Map{
		"question":        question,
		"answer":          result.Answer,
		"inference_time":  record.InferenceTime,
		"model_name":      result.ModelName,
		"device":          result.Device,
		"embedding_drift": distance,
		"features":        record,
		"evidently_drift": outcome,
	})
}

func (h *VQAHandler) ModelInfo(c *fiber.Ctx) error {
	info, err := h.svc.ModelInfo(c.Context())
	if err != nil {
		logger.Error("Failed to fetch VQA model info", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to fetch model info",
		})
	}
	return c.JSON(info)
}

func (h *VQAHandler) Health(c *fiber.Ctx) error {
	stats := h.monitor.Stats()

	if err := h.svc.Health(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"service": DomainVQA,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": DomainVQA,
		"drift_detector": fiber.Map{
			"reference_samples": stats.ReferenceSize,
			"current_samples":   stats.CurrentSize,
			"drift_detected":    stats.DriftDetected,
		},
	})
}
