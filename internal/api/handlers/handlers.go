package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/storage/models"
	"github.com/inferwatch/backend/pkg/logger"
)

const (
	DomainDetection = "detection"
	DomainVQA       = "vqa"
)

// Store is the audit-log surface the handlers write to. A nil Store disables
// persistence.
type Store interface {
	SaveInferenceRecord(record *models.InferenceRecord) error
	SaveDriftReport(record *models.DriftReportRecord) error
	RecentInferences(domain string, limit int) ([]models.InferenceRecord, error)
}

// SnapshotCache mirrors the last report and baseline embedding to an
// external cache for dashboards. A nil SnapshotCache disables mirroring.
type SnapshotCache interface {
	SetLastReport(ctx context.Context, domain string, report *drift.Report) error
	SetBaseline(ctx context.Context, domain string, embedding []float64) error
}

// persistInference writes the audit record and report snapshot, best effort:
// storage problems are logged and never fail the request.
func persistInference(ctx context.Context, store Store, cache SnapshotCache,
	domain string, latency time.Duration, brightness float64,
	featureRecord interface{}, outcome drift.Outcome) {

	if store != nil {
		featuresJSON, err := json.Marshal(featureRecord)
		if err == nil {
			err = store.SaveInferenceRecord(&models.InferenceRecord{
				ID:           uuid.NewString(),
				Domain:       domain,
				LatencyMS:    int(latency.Milliseconds()),
				Brightness:   brightness,
				FeaturesJSON: string(featuresJSON),
				CreatedAt:    time.Now(),
			})
		}
		if err != nil {
			logger.Warn("Failed to persist inference record",
				zap.String("domain", domain), zap.Error(err))
		}
	}

	if outcome.Report == nil {
		return
	}

	if store != nil {
		reportJSON, err := json.Marshal(outcome.Report)
		if err == nil {
			err = store.SaveDriftReport(&models.DriftReportRecord{
				ID:                 uuid.NewString(),
				Domain:             domain,
				DatasetDrift:       outcome.Report.DatasetDrift,
				DriftShare:         outcome.Report.DriftShare,
				NumDriftedFeatures: outcome.Report.NumDriftedFeatures,
				ReportJSON:         string(reportJSON),
				CreatedAt:          time.Now(),
			})
		}
		if err != nil {
			logger.Warn("Failed to persist drift report",
				zap.String("domain", domain), zap.Error(err))
		}
	}

	if cache != nil {
		if err := cache.SetLastReport(ctx, domain, outcome.Report); err != nil {
			logger.Warn("Failed to cache drift report",
				zap.String("domain", domain), zap.Error(err))
		}
	}
}

func snapshotBaseline(ctx context.Context, cache SnapshotCache, domain string, meter *drift.Meter, wasUnset bool) {
	if cache == nil || !wasUnset {
		return
	}

	baseline := meter.Baseline()
	if baseline == nil {
		return
	}

	if err := cache.SetBaseline(ctx, domain, baseline); err != nil {
		logger.Warn("Failed to cache baseline embedding",
			zap.String("domain", domain), zap.Error(err))
	}
}
