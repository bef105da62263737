package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/storage/models"
)

type stubService struct {
	summary    drift.StatusSummary
	stats      drift.DetectorStats
	quality    drift.QualityReport
	resetCalls int
}

func (s *stubService) DetectDrift(context.Context) drift.Outcome { return drift.Outcome{} }
func (s *stubService) Summary() drift.StatusSummary              { return s.summary }
func (s *stubService) Stats() drift.DetectorStats                { return s.stats }
func (s *stubService) DataQuality() drift.QualityReport          { return s.quality }
func (s *stubService) ResetReference()                           { s.resetCalls++ }

type stubStore struct {
	records []models.InferenceRecord
	err     error
}

func (s *stubStore) SaveInferenceRecord(*models.InferenceRecord) error { return nil }
func (s *stubStore) SaveDriftReport(*models.DriftReportRecord) error   { return nil }

func (s *stubStore) RecentInferences(string, int) ([]models.InferenceRecord, error) {
	return s.records, s.err
}

func newMonitoringApp(svc drift.Service, meter *drift.Meter, store Store) *fiber.App {
	h := NewMonitoringHandler(DomainDetection, svc, meter, store)

	app := fiber.New()
	app.Get("/drift/status", h.DriftStatus)
	app.Get("/drift/summary", h.DriftSummary)
	app.Post("/drift/reset-reference", h.ResetReference)
	app.Get("/data-quality", h.DataQuality)
	app.Get("/history", h.History)
	return app
}

func TestDriftStatus(t *testing.T) {
	svc := &stubService{summary: drift.StatusSummary{
		Status:           drift.StatusNoDrift,
		ReferenceSamples: 30,
		CurrentSamples:   20,
	}}
	app := newMonitoringApp(svc, drift.NewMeter(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/drift/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "no_drift", got["status"])
	assert.Equal(t, float64(30), got["reference_samples"])
}

func TestDriftSummary(t *testing.T) {
	svc := &stubService{
		summary: drift.StatusSummary{Status: drift.StatusNoAnalysis},
		stats:   drift.DetectorStats{ReferenceWindowSize: 30, DetectionWindowSize: 20},
	}
	app := newMonitoringApp(svc, drift.NewMeter(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/drift/summary", nil))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got, "drift_summary")
	assert.Contains(t, got, "detector_stats")

	stats := got["detector_stats"].(map[string]interface{})
	assert.Equal(t, float64(30), stats["reference_window_size"])
}

func TestResetReferenceClearsMeter(t *testing.T) {
	svc := &stubService{}
	meter := drift.NewMeter()
	meter.Observe([]float64{1, 2, 3})
	require.NotNil(t, meter.Baseline())

	app := newMonitoringApp(svc, meter, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/drift/reset-reference", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 1, svc.resetCalls)
	assert.Nil(t, meter.Baseline())

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "success", got["status"])
}

func TestDataQuality(t *testing.T) {
	svc := &stubService{quality: drift.QualityReport{
		Status:       drift.StatusOK,
		TotalSamples: 12,
	}}
	app := newMonitoringApp(svc, drift.NewMeter(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/data-quality", nil))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "ok", got["status"])
	assert.Equal(t, float64(12), got["total_samples"])
}

func TestHistory(t *testing.T) {
	t.Run("without store", func(t *testing.T) {
		app := newMonitoringApp(&stubService{}, drift.NewMeter(), nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Empty(t, got["history"])
	})

	t.Run("with records", func(t *testing.T) {
		store := &stubStore{records: []models.InferenceRecord{
			{ID: "a", Domain: DomainDetection, LatencyMS: 42},
		}}
		app := newMonitoringApp(&stubService{}, drift.NewMeter(), store)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.NoError(t, err)

		var got struct {
			History []models.InferenceRecord `json:"history"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got.History, 1)
		assert.Equal(t, 42, got.History[0].LatencyMS)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &stubStore{err: errors.New("disk full")}
		app := newMonitoringApp(&stubService{}, drift.NewMeter(), store)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/history", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
