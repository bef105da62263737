package drift

import (
	"math"
	"time"
)

const (
	StatusNoAnalysis    = "no_analysis"
	StatusDriftDetected = "drift_detected"
	StatusNoDrift       = "no_drift"
	StatusOK            = "ok"
	StatusNoData        = "no_data"
)

// StatusSummary is the compact health view of one monitor.
type StatusSummary struct {
	Status             string                  `json:"status"`
	DriftDetected      bool                    `json:"drift_detected"`
	DriftShare         float64                 `json:"drift_share"`
	NumDriftedFeatures int                     `json:"num_drifted_features"`
	ReferenceSamples   int                     `json:"reference_samples"`
	CurrentSamples     int                     `json:"current_samples"`
	LastCheck          *time.Time              `json:"last_check,omitempty"`
	FeatureScores      map[string]ColumnResult `json:"feature_drift_scores,omitempty"`
	Message            string                  `json:"message,omitempty"`
}

// FeatureStats is a per-feature descriptive summary over the current window.
type FeatureStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// DetectorStats is the detailed view of one monitor's configuration and
// current-window statistics.
type DetectorStats struct {
	ReferenceSize           int                       `json:"reference_size"`
	CurrentSize             int                       `json:"current_size"`
	ReferenceWindowSize     int                       `json:"reference_window_size"`
	DetectionWindowSize     int                       `json:"detection_window_size"`
	DriftThreshold          float64                   `json:"drift_threshold"`
	DriftDetected           bool                      `json:"drift_detected"`
	LastCheckTime           *time.Time                `json:"last_check_time,omitempty"`
	NumericFeatures         []string                  `json:"monitored_numeric_features"`
	CategoricalFeatures     []string                  `json:"monitored_categorical_features"`
	FeatureStats            map[string]FeatureStats   `json:"feature_stats,omitempty"`
	CategoricalDistribution map[string]map[string]int `json:"categorical_distribution,omitempty"`
}

// QualityReport describes the current window independent of any drift
// comparison.
type QualityReport struct {
	Status                  string                    `json:"status"`
	Message                 string                    `json:"message,omitempty"`
	TotalSamples            int                       `json:"total_samples,omitempty"`
	NumFeatures             int                       `json:"num_features,omitempty"`
	Timestamp               time.Time                 `json:"timestamp,omitempty"`
	FeatureStats            map[string]FeatureStats   `json:"feature_stats,omitempty"`
	CategoricalDistribution map[string]map[string]int `json:"categorical_distribution,omitempty"`
}

// Summary reports the monitor's drift status. Before the first successful
// comparison the status is no_analysis, which is a warm-up condition rather
// than an error.
func (m *Monitor[T]) Summary() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := StatusSummary{
		ReferenceSamples: m.buffer.ReferenceLen(),
		CurrentSamples:   m.buffer.CurrentLen(),
	}

	if m.lastReport == nil {
		s.Status = StatusNoAnalysis
		s.Message = "No drift analysis performed yet"
		return s
	}

	s.DriftDetected = m.lastReport.DatasetDrift
	s.DriftShare = m.lastReport.DriftShare
	s.NumDriftedFeatures = m.lastReport.NumDriftedFeatures
	s.FeatureScores = m.lastReport.FeatureScores

	lastCheck := m.lastCheck
	s.LastCheck = &lastCheck

	if s.DriftDetected {
		s.Status = StatusDriftDetected
	} else {
		s.Status = StatusNoDrift
	}
	return s
}

// Stats reports window sizing, configured thresholds and running statistics
// over the current window.
func (m *Monitor[T]) Stats() DetectorStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := DetectorStats{
		ReferenceSize:       m.buffer.ReferenceLen(),
		CurrentSize:         m.buffer.CurrentLen(),
		ReferenceWindowSize: m.cfg.ReferenceSize,
		DetectionWindowSize: m.cfg.DetectionSize,
		DriftThreshold:      m.cfg.DriftThreshold,
		NumericFeatures:     m.schema.Numeric,
		CategoricalFeatures: m.schema.Categorical,
	}

	if m.lastReport != nil {
		stats.DriftDetected = m.lastReport.DatasetDrift
		lastCheck := m.lastCheck
		stats.LastCheckTime = &lastCheck
	}

	samples := m.buffer.CurrentSamples()
	if len(samples) > 0 {
		stats.FeatureStats = numericStats(samples, m.schema)
		stats.CategoricalDistribution = categoricalCounts(samples, m.schema)
	}

	return stats
}

// DataQuality reports descriptive statistics over the current window only.
func (m *Monitor[T]) DataQuality() QualityReport {
	m.mu.Lock()
	samples := m.buffer.CurrentSamples()
	schema := m.schema
	m.mu.Unlock()

	if len(samples) == 0 {
		return QualityReport{
			Status:  StatusNoData,
			Message: "No data available for quality analysis",
		}
	}

	return QualityReport{
		Status:                  StatusOK,
		TotalSamples:            len(samples),
		NumFeatures:             len(schema.Numeric) + len(schema.Categorical),
		Timestamp:               time.Now(),
		FeatureStats:            numericStats(samples, schema),
		CategoricalDistribution: categoricalCounts(samples, schema),
	}
}

func numericStats[T Sample](samples []T, schema Schema) map[string]FeatureStats {
	out := make(map[string]FeatureStats, len(schema.Numeric))

	for _, name := range schema.Numeric {
		var sum, sumSq float64
		min := math.Inf(1)
		max := math.Inf(-1)

		for _, s := range samples {
			v := s.NumericFeatures()[name]
			sum += v
			sumSq += v * v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}

		n := float64(len(samples))
		mean := sum / n

		std := 0.0
		if len(samples) > 1 {
			// sample standard deviation
			variance := (sumSq - n*mean*mean) / (n - 1)
			if variance > 0 {
				std = math.Sqrt(variance)
			}
		}

		out[name] = FeatureStats{Mean: mean, Std: std, Min: min, Max: max}
	}

	return out
}

func categoricalCounts[T Sample](samples []T, schema Schema) map[string]map[string]int {
	if len(schema.Categorical) == 0 {
		return nil
	}

	out := make(map[string]map[string]int, len(schema.Categorical))
	for _, name := range schema.Categorical {
		counts := make(map[string]int)
		for _, s := range samples {
			counts[s.CategoricalFeatures()[name]]++
		}
		out[name] = counts
	}

	return out
}
