package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inferwatch/backend/internal/drift"
)

var (
	InferenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inferwatch_inference_total",
			Help: "Total number of inference requests",
		},
		[]string{"domain", "status"},
	)

	InferenceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inferwatch_inference_latency_seconds",
			Help:    "Inference latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"domain"},
	)

	ImageBrightness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_image_brightness",
			Help: "Brightness of the last processed image",
		},
		[]string{"domain"},
	)

	BrightnessHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inferwatch_image_brightness_histogram",
			Help:    "Histogram of image brightness",
			Buckets: []float64{100, 200, 255},
		},
		[]string{"domain"},
	)

	VRAMAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inferwatch_vram_allocated_gb",
			Help: "GPU memory reported by the upstream model in gigabytes",
		},
	)

	EmbeddingDriftDistance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_embedding_drift_distance",
			Help: "Cosine distance between the baseline and current embedding proxy",
		},
		[]string{"domain"},
	)

	QuestionLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inferwatch_vqa_question_length",
			Help:    "VQA question length in words",
			Buckets: []float64{1, 3, 5, 10, 15, 20},
		},
	)

	AnswerLength = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inferwatch_vqa_answer_length",
			Help:    "VQA answer length in words",
			Buckets: []float64{1, 2, 3, 5, 10, 15},
		},
	)

	QuestionTypeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inferwatch_vqa_question_type_total",
			Help: "VQA question types",
		},
		[]string{"question_type"},
	)

	DatasetDrift = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_dataset_drift",
			Help: "Dataset-level drift flag from the last report (1=drift, 0=no drift)",
		},
		[]string{"domain"},
	)

	DriftShare = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_drift_share",
			Help: "Share of drifted features in the last report",
		},
		[]string{"domain"},
	)

	DriftedFeatures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_drifted_features",
			Help: "Number of drifted features in the last report",
		},
		[]string{"domain"},
	)

	FeatureDriftScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "inferwatch_feature_drift_score",
			Help: "Per-feature drift score from the last report",
		},
		[]string{"domain", "feature"},
	)
)

func Init() {
	prometheus.MustRegister(InferenceTotal)
	prometheus.MustRegister(InferenceLatency)
	prometheus.MustRegister(ImageBrightness)
	prometheus.MustRegister(BrightnessHistogram)
	prometheus.MustRegister(VRAMAllocated)
	prometheus.MustRegister(EmbeddingDriftDistance)
	prometheus.MustRegister(QuestionLength)
	prometheus.MustRegister(AnswerLength)
	prometheus.MustRegister(QuestionTypeTotal)
	prometheus.MustRegister(DatasetDrift)
	prometheus.MustRegister(DriftShare)
	prometheus.MustRegister(DriftedFeatures)
	prometheus.MustRegister(FeatureDriftScore)
}

// RecordDriftReport pushes one successful report onto the gauges. Unready
// and failure outcomes are never exported; the gauges keep their last value.
func RecordDriftReport(domain string, report *drift.Report) {
	if report == nil {
		return
	}

	flag := 0.0
	if report.DatasetDrift {
		flag = 1.0
	}

	DatasetDrift.WithLabelValues(domain).Set(flag)
	DriftShare.WithLabelValues(domain).Set(report.DriftShare)
	DriftedFeatures.WithLabelValues(domain).Set(float64(report.NumDriftedFeatures))

	for feature, col := range report.FeatureScores {
		FeatureDriftScore.WithLabelValues(domain, feature).Set(col.DriftScore)
	}
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
