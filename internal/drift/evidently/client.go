package evidently

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/pkg/logger"
	"github.com/inferwatch/backend/pkg/retry"
)

// Client talks to the drift-comparison sidecar, which runs the actual
// statistical tests over the two windows. It implements drift.Comparer.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	cb          *gobreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "evidently",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	retryConfig := retry.DefaultConfig()
	retryConfig.Logger = logger.GetLogger()

	logger.Info("Evidently client initialized", zap.String("base_url", baseURL))

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		cb:          cb,
		retryConfig: retryConfig,
	}
}

type compareRequest struct {
	Reference drift.Dataset `json:"reference"`
	Current   drift.Dataset `json:"current"`
}

type compareResponse struct {
	DatasetDrift           bool                          `json:"dataset_drift"`
	DriftShare             float64                       `json:"drift_share"`
	NumberOfDriftedColumns int                           `json:"number_of_drifted_columns"`
	DriftByColumns         map[string]drift.ColumnResult `json:"drift_by_columns"`
}

// Compare posts both windows as labeled datasets and returns the raw
// per-column and aggregate drift results.
func (c *Client) Compare(ctx context.Context, reference, current drift.Dataset) (*drift.ComparisonResult, error) {
	payload, err := json.Marshal(compareRequest{Reference: reference, Current: current})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal datasets: %w", err)
	}

	var result *drift.ComparisonResult

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, retry.Do(ctx, c.retryConfig, func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.baseURL+"/compare", bytes.NewReader(payload))
			if err != nil {
				return fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("failed to call drift service: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("drift service returned status %d: %s", resp.StatusCode, body)
			}

			var parsed compareResponse
			if err := json.Unmarshal(body, &parsed); err != nil {
				return fmt.Errorf("failed to unmarshal drift response: %w", err)
			}

			result = &drift.ComparisonResult{
				DatasetDrift:           parsed.DatasetDrift,
				DriftShare:             parsed.DriftShare,
				NumberOfDriftedColumns: parsed.NumberOfDriftedColumns,
				Columns:                parsed.DriftByColumns,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Drift comparison returned",
		zap.Bool("dataset_drift", result.DatasetDrift),
		zap.Float64("drift_share", result.DriftShare),
		zap.Int("drifted_columns", result.NumberOfDriftedColumns),
	)

	return result, nil
}
