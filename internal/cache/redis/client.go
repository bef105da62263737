package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/drift"
	"github.com/inferwatch/backend/pkg/logger"
)

// Client snapshots monitor outputs into redis so external dashboards can
// read the last report and baseline embedding across process restarts. The
// snapshots are write-only from this service's perspective; monitor state is
// never rebuilt from them.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetLastReport(ctx context.Context, domain string, report *drift.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("drift:last:%s", domain), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set report snapshot: %w", err)
	}

	logger.Debug("Drift report snapshot stored", zap.String("domain", domain))
	return nil
}

func (c *Client) GetLastReport(ctx context.Context, domain string) (*drift.Report, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("drift:last:%s", domain)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get report snapshot: %w", err)
	}

	var report drift.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal report snapshot: %w", err)
	}
	return &report, true, nil
}

func (c *Client) SetBaseline(ctx context.Context, domain string, embedding []float64) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("drift:baseline:%s", domain), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set baseline snapshot: %w", err)
	}

	logger.Debug("Baseline embedding snapshot stored", zap.String("domain", domain))
	return nil
}

func (c *Client) GetBaseline(ctx context.Context, domain string) ([]float64, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("drift:baseline:%s", domain)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get baseline snapshot: %w", err)
	}

	var embedding []float64
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal baseline snapshot: %w", err)
	}
	return embedding, true, nil
}
