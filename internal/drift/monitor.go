package drift

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inferwatch/backend/pkg/logger"
)

// Config sizes the windows for one monitored domain.
type Config struct {
	ReferenceSize  int
	DetectionSize  int
	DriftThreshold float64
}

func DefaultConfig() Config {
	return Config{
		ReferenceSize:  30,
		DetectionSize:  20,
		DriftThreshold: 0.5,
	}
}

// Service is the domain-independent view of a Monitor used by HTTP handlers
// and the websocket stream.
type Service interface {
	DetectDrift(ctx context.Context) Outcome
	Summary() StatusSummary
	Stats() DetectorStats
	DataQuality() QualityReport
	ResetReference()
}

// Monitor owns the sample windows for one domain and decides when a drift
// comparison runs. The statistical comparison itself is delegated to the
// Comparer collaborator.
type Monitor[T Sample] struct {
	domain   string
	schema   Schema
	comparer Comparer
	cfg      Config

	mu         sync.Mutex
	buffer     *SampleBuffer[T]
	lastReport *Report
	lastCheck  time.Time
}

func NewMonitor[T Sample](domain string, schema Schema, comparer Comparer, cfg Config) *Monitor[T] {
	if cfg.ReferenceSize <= 0 {
		cfg.ReferenceSize = DefaultConfig().ReferenceSize
	}
	if cfg.DetectionSize <= 0 {
		cfg.DetectionSize = DefaultConfig().DetectionSize
	}

	return &Monitor[T]{
		domain:   domain,
		schema:   schema,
		comparer: comparer,
		cfg:      cfg,
		buffer:   NewSampleBuffer[T](cfg.ReferenceSize, cfg.DetectionSize),
	}
}

// Observe adds one sample and immediately runs a drift check. The add and the
// window snapshot happen under one lock so concurrent requests cannot race on
// the warm-up backfill; the comparison itself runs on the copied datasets
// without holding the lock.
func (m *Monitor[T]) Observe(ctx context.Context, sample T) Outcome {
	m.mu.Lock()
	m.buffer.Add(sample)
	unready, ref, cur := m.snapshotLocked()
	m.mu.Unlock()

	if unready != nil {
		return Outcome{Unready: unready}
	}
	return m.compare(ctx, ref, cur)
}

// DetectDrift runs a drift check against the windows as they stand, without
// adding a sample.
func (m *Monitor[T]) DetectDrift(ctx context.Context) Outcome {
	m.mu.Lock()
	unready, ref, cur := m.snapshotLocked()
	m.mu.Unlock()

	if unready != nil {
		return Outcome{Unready: unready}
	}
	return m.compare(ctx, ref, cur)
}

func (m *Monitor[T]) snapshotLocked() (*Unready, Dataset, Dataset) {
	refLen := m.buffer.ReferenceLen()
	curLen := m.buffer.CurrentLen()

	if refLen < m.cfg.ReferenceSize {
		return &Unready{
			Reason:                ReasonInsufficientReference,
			ReferenceSize:         refLen,
			CurrentSize:           curLen,
			RequiredReferenceSize: m.cfg.ReferenceSize,
			Message:               fmt.Sprintf("Need %d more reference samples", m.cfg.ReferenceSize-refLen),
		}, Dataset{}, Dataset{}
	}

	if curLen < m.cfg.DetectionSize {
		return &Unready{
			Reason:              ReasonInsufficientCurrent,
			ReferenceSize:       refLen,
			CurrentSize:         curLen,
			RequiredCurrentSize: m.cfg.DetectionSize,
			Message:             fmt.Sprintf("Need %d more current samples", m.cfg.DetectionSize-curLen),
		}, Dataset{}, Dataset{}
	}

	ref, cur := m.buffer.Snapshot(m.schema)
	return nil, ref, cur
}

func (m *Monitor[T]) compare(ctx context.Context, ref, cur Dataset) Outcome {
	result, err := m.comparer.Compare(ctx, ref, cur)
	if err != nil {
		logger.Warn("Drift comparison failed",
			zap.String("domain", m.domain),
			zap.Error(err),
		)
		return Outcome{Failure: &Failure{Detail: err.Error()}}
	}

	scores := make(map[string]ColumnResult, len(result.Columns))
	for name, col := range result.Columns {
		if m.schema.Contains(name) {
			scores[name] = col
		}
	}

	report := &Report{
		DatasetDrift:       result.DatasetDrift,
		DriftShare:         result.DriftShare,
		NumDriftedFeatures: result.NumberOfDriftedColumns,
		FeatureScores:      scores,
		ReferenceSize:      ref.Size,
		CurrentSize:        cur.Size,
		ComputedAt:         time.Now(),
	}

	m.mu.Lock()
	m.lastReport = report
	m.lastCheck = report.ComputedAt
	m.mu.Unlock()

	logger.Debug("Drift comparison completed",
		zap.String("domain", m.domain),
		zap.Bool("dataset_drift", report.DatasetDrift),
		zap.Float64("drift_share", report.DriftShare),
	)

	return Outcome{Report: report}
}

// ResetReference promotes the current window to be the new baseline and
// discards the last report.
func (m *Monitor[T]) ResetReference() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer.ResetReference()
	m.lastReport = nil
	m.lastCheck = time.Time{}

	logger.Info("Reference window reset",
		zap.String("domain", m.domain),
		zap.Int("reference_size", m.buffer.ReferenceLen()),
		zap.Int("current_size", m.buffer.CurrentLen()),
	)
}

func (m *Monitor[T]) Domain() string { return m.domain }
