package vqa

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

// Client is a thin wrapper over the upstream visual question answering
// service.
type Client struct {
	baseURL     string
	maxLength   int
	numBeams    int
	httpClient  *http.Client
	cb          *gobreaker.CircuitBreaker
	retryConfig retry.Config
}

type Result struct {
	Answer    string `json:"answer"`
	ModelName string `json:"model_name"`
	Device    string `json:"device"`
}

func NewClient(baseURL string, maxLength, numBeams int, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if maxLength == 0 {
		maxLength = 50
	}
	if numBeams == 0 {
		numBeams = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "vqa-upstream",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 2
	retryConfig.Logger = logger.GetLogger()

	logger.Info("VQA upstream client initialized", zap.String("base_url", baseURL))

	return &Client{
		baseURL:     baseURL,
		maxLength:   maxLength,
		numBeams:    numBeams,
		httpClient:  &http.Client{Timeout: timeout},
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// Answer posts the image and question to the upstream model and returns the
// generated answer. Zero maxLength/numBeams fall back to the configured
// defaults.
func (c *Client) Answer(ctx context.Context, filename string, image []byte, question string, maxLength, numBeams int) (*Result, error) {
	if maxLength == 0 {
		maxLength = c.maxLength
	}
	if numBeams == 0 {
		numBeams = c.numBeams
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image payload: %w", err)
	}
	if err := writer.WriteField("question", question); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("max_length", strconv.Itoa(maxLength)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("num_beams", strconv.Itoa(numBeams)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var result *Result

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, retry.Do(ctx, c.retryConfig, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/answer", bytes.NewReader(body.Bytes()))
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("Content-Type", writer.FormDataContentType())

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call vqa model: %w", err)
			}
			defer resp.Body.Close()

			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("vqa model returned status %d: %s", resp.StatusCode, payload)
			}

			var parsed Result
			if err := json.Unmarshal(payload, &parsed); err != nil {
				return fmt.Errorf("failed to unmarshal answer: %w", err)
			}

			result = &parsed
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("VQA inference completed",
		zap.String("model", result.ModelName),
		zap.String("device", result.Device),
	)

	return result, nil
}

// ModelInfo passes through the upstream model metadata.
func (c *Client) ModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return c.getJSON(ctx, "/model/info")
}

// Health checks the upstream VQA service.
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
		return nil, fmt.Errorf("failed to call vqa model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vqa model returned status %d", resp.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
