package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/inferwatch/backend/internal/storage/models"
	"github.com/inferwatch/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS inference_records (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		latency_ms INTEGER NOT NULL,
		brightness REAL,
		features_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inference_domain ON inference_records(domain);
	CREATE INDEX IF NOT EXISTS idx_inference_created ON inference_records(created_at);

	CREATE TABLE IF NOT EXISTS drift_reports (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		dataset_drift INTEGER NOT NULL,
		drift_share REAL NOT NULL,
		num_drifted_features INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_domain ON drift_reports(domain);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON drift_reports(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (c *Client) SaveInferenceRecord(record *models.InferenceRecord) error {
	_, err := c.db.Exec(
		`INSERT INTO inference_records (id, domain, latency_ms, brightness, features_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Domain, record.LatencyMS, record.Brightness,
		record.FeaturesJSON, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert inference record: %w", err)
	}
	return nil
}

func (c *Client) SaveDriftReport(record *models.DriftReportRecord) error {
	datasetDrift := 0
	if record.DatasetDrift {
		datasetDrift = 1
	}

	_, err := c.db.Exec(
		`INSERT INTO drift_reports (id, domain, dataset_drift, drift_share, num_drifted_features, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Domain, datasetDrift, record.DriftShare,
		record.NumDriftedFeatures, record.ReportJSON, record.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert drift report: %w", err)
	}
	return nil
}

func (c *Client) RecentInferences(domain string, limit int) ([]models.InferenceRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.Query(
		`SELECT id, domain, latency_ms, brightness, features_json, created_at
		 FROM inference_records WHERE domain = ?
		 ORDER BY created_at DESC LIMIT ?`,
		domain, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query inference records: %w", err)
	}
	defer rows.Close()

	var records []models.InferenceRecord
	for rows.Next() {
		var r models.InferenceRecord
		var createdAt int64

		if err := rows.Scan(&r.ID, &r.Domain, &r.LatencyMS, &r.Brightness, &r.FeaturesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan inference record: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inference records: %w", err)
	}

	return records, nil
}
