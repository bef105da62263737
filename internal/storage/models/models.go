package models

import "time"

// InferenceRecord is one audited inference request with its extracted
// feature record serialized as JSON.
type InferenceRecord struct {
	ID           string
	Domain       string
	LatencyMS    int
	Brightness   float64
	FeaturesJSON string
	CreatedAt    time.Time
}

// DriftReportRecord is one persisted drift report, kept for offline review;
// the in-memory monitor still only retains the latest report.
type DriftReportRecord struct {
	ID                 string
	Domain             string
	DatasetDrift       bool
	DriftShare         float64
	NumDriftedFeatures int
	ReportJSON         string
	CreatedAt          time.Time
}
