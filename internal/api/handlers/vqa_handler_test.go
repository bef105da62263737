package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/internal/features"
	"github.com/inferwatch/backend/internal/inference/vqa"
)

type stubAnswerer struct {
	result       *vqa.Result
	err          error
	lastQuestion string
	lastMaxLen   int
	lastBeams    int
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, _ []byte, question string, maxLength, numBeams int) (*vqa.Result, error) {
	s.lastQuestion = question
	s.lastMaxLen = maxLength
	s.lastBeams = numBeams
	return s.result, s.err
}

func (s *stubAnswerer) ModelInfo(context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"model": "blip-vqa-base"}, nil
}

func (s *stubAnswerer) Health(context.Context) error { return nil }

func newVQAApp(svc VQAService) (*fiber.App, *VQAHandler) {
	monitor := drift.NewMonitor[features.VQAFeatures](DomainVQA,
		features.VQASchema,
		&stubComparer{result: &drift.ComparisonResult{}},
		drift.Config{ReferenceSize: 5, DetectionSize: 3},
	)
	h := NewVQAHandler(svc, monitor, drift.NewMeter(), nil, nil)

	app := fiber.New()
	app.Post("/infer", h.HandleInfer)
	return app, h
}

func vqaRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "test.png")
	require.NoError(t, err)
	_, err = part.Write(testPNG(t))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/infer", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestVQAHandleInfer(t *testing.T) {
	svc := &stubAnswerer{result: &vqa.Result{
		Answer:    "two cats",
		ModelName: "blip-vqa-base",
		Device:    "cuda",
	}}
	app, _ := newVQAApp(svc)

	req := vqaRequest(t, map[string]string{
		"question":   "How many cats are there?",
		"max_length": "30",
		"num_beams":  "3",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "How many cats are there?", svc.lastQuestion)
	assert.Equal(t, 30, svc.lastMaxLen)
	assert.Equal(t, 3, svc.lastBeams)

	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.Equal(t, "two cats", got["answer"])
	assert.Equal(t, "blip-vqa-base", got["model_name"])
	assert.InDelta(t, 0.0, got["embedding_drift"].(float64), 1e-9)

	featureRecord := got["features"].(map[string]interface{})
	assert.Equal(t, "how_many", featureRecord["question_type"])
	assert.Equal(t, float64(5), featureRecord["question_length"])
}

func TestVQAHandleInferMissingQuestion(t *testing.T) {
	app, h := newVQAApp(&stubAnswerer{result: &vqa.Result{}})

	req := vqaRequest(t, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, h.monitor.Stats().CurrentSize)
}

func TestVQAHandleInferMissingImage(t *testing.T) {
	app, _ := newVQAApp(&stubAnswerer{result: &vqa.Result{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/infer", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVQAHandleInferUpstreamFailure(t *testing.T) {
	app, h := newVQAApp(&stubAnswerer{err: errors.New("model server down")})

	req := vqaRequest(t, map[string]string{"question": "What is this?"})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// failed inferences never enter the drift windows
	assert.Equal(t, 0, h.monitor.Stats().CurrentSize)
	assert.Nil(t, h.meter.Baseline())
}
