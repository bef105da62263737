package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryBeforeFirstAnalysis(t *testing.T) {
	m := newTestMonitor(&stubComparer{result: noDriftResult()})

	s := m.Summary()
	assert.Equal(t, StatusNoAnalysis, s.Status)
	assert.False(t, s.DriftDetected)
	assert.Nil(t, s.LastCheck)
	assert.Equal(t, "No drift analysis performed yet", s.Message)
}

func TestSummaryAfterDriftDetected(t *testing.T) {
	cmp := &stubComparer{result: &ComparisonResult{
		DatasetDrift:           true,
		DriftShare:             0.75,
		NumberOfDriftedColumns: 1,
		Columns: map[string]ColumnResult{
			"value": {DriftDetected: true, DriftScore: 0.95, StatTestName: "ks"},
		},
	}}
	m := newTestMonitor(cmp)

	for i := 0; i < 4; i++ {
		m.Observe(context.Background(), sampleWith(float64(i*100), "a"))
	}

	s := m.Summary()
	assert.Equal(t, StatusDriftDetected, s.Status)
	assert.True(t, s.DriftDetected)
	assert.Equal(t, 0.75, s.DriftShare)
	assert.Equal(t, 1, s.NumDriftedFeatures)
	require.NotNil(t, s.LastCheck)
	assert.Contains(t, s.FeatureScores, "value")
}

func TestStatsRunningStatistics(t *testing.T) {
	m := newTestMonitor(&stubComparer{result: noDriftResult()})

	m.Observe(context.Background(), sampleWith(2, "a"))
	m.Observe(context.Background(), sampleWith(4, "b"))
	m.Observe(context.Background(), sampleWith(6, "a"))

	stats := m.Stats()
	assert.Equal(t, 3, stats.ReferenceSize)
	assert.Equal(t, 3, stats.CurrentSize)
	assert.Equal(t, 5, stats.ReferenceWindowSize)
	assert.Equal(t, 3, stats.DetectionWindowSize)
	assert.Equal(t, 0.5, stats.DriftThreshold)
	assert.Nil(t, stats.LastCheckTime)
	assert.Equal(t, []string{"value"}, stats.NumericFeatures)

	fs, ok := stats.FeatureStats["value"]
	require.True(t, ok)
	assert.InDelta(t, 4.0, fs.Mean, 1e-9)
	assert.InDelta(t, 2.0, fs.Std, 1e-9)
	assert.Equal(t, 2.0, fs.Min)
	assert.Equal(t, 6.0, fs.Max)

	dist := stats.CategoricalDistribution["kind"]
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, dist)
}

func TestDataQuality(t *testing.T) {
	m := newTestMonitor(&stubComparer{result: noDriftResult()})

	q := m.DataQuality()
	assert.Equal(t, StatusNoData, q.Status)
	assert.Zero(t, q.TotalSamples)

	m.Observe(context.Background(), sampleWith(1, "a"))
	m.Observe(context.Background(), sampleWith(3, "a"))

	q = m.DataQuality()
	assert.Equal(t, StatusOK, q.Status)
	assert.Equal(t, 2, q.TotalSamples)
	assert.Equal(t, 2, q.NumFeatures)
	assert.False(t, q.Timestamp.IsZero())
	assert.InDelta(t, 2.0, q.FeatureStats["value"].Mean, 1e-9)
}

func TestNumericStatsSingleSample(t *testing.T) {
	stats := numericStats([]testSample{sampleWith(7, "a")}, testSchema)

	fs := stats["value"]
	assert.Equal(t, 7.0, fs.Mean)
	assert.Equal(t, 0.0, fs.Std)
	assert.Equal(t, 7.0, fs.Min)
	assert.Equal(t, 7.0, fs.Max)
}
