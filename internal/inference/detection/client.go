package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/pkg/logger"
	"github.com/inferwatch/backend/pkg/retry"
)

// Client is a thin wrapper over the upstream object-detection service. It
// runs inference and returns the raw outputs; feature extraction and drift
// accounting happen in the caller.
type Client struct {
	baseURL       string
	confThreshold float64
	httpClient    *http.Client
	cb            *gobreaker.CircuitBreaker
	retryConfig   retry.Config
}

type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Detection struct {
	Class       string      `json:"class"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

type Result struct {
	Detections    []Detection `json:"detections"`
	Device        string      `json:"device"`
	VRAMAllocated float64     `json:"vram_allocated"`
}

func NewClient(baseURL string, confThreshold float64, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "detection-upstream",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 2
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Detection upstream client initialized",
		zap.String("base_url", baseURL),
		zap.Float64("conf_threshold", confThreshold),
	)

	return &Client{
		baseURL:       baseURL,
		confThreshold: confThreshold,
		httpClient:    &http.Client{Timeout: timeout},
		cb:            cb,
		retryConfig:   retryConfig,
	}
}

// Detect posts the image to the upstream detector and returns its raw
// detections.
func (c *Client) Detect(ctx context.Context, filename string, image []byte) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image payload: %w", err)
	}
	if err := writer.WriteField("conf_threshold", strconv.FormatFloat(c.confThreshold, 'f', -1, 64)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var result *Result

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, retry.Do(ctx, c.retryConfig, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/detect", bytes.NewReader(body.Bytes()))
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("Content-Type", writer.FormDataContentType())

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call detector: %w", err)
			}
			defer resp.Body.Close()

			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("detector returned status %d: %s", resp.StatusCode, payload)
			}

			var parsed Result
			if err := json.Unmarshal(payload, &parsed); err != nil {
				return fmt.Errorf("failed to unmarshal detections: %w", err)
			}

			result = &parsed
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Detection inference completed",
		zap.Int("detections", len(result.Detections)),
		zap.String("device", result.Device),
	)

	return result, nil
}

// ModelInfo passes through the upstream model metadata.
func (c *Client) ModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return c.getJSON(ctx, "/model/info")
}

// Health checks the upstream detector.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.getJSON(ctx, "/health")
	return err
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call detector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
