package drift

import (
	"context"
	"time"
)

// Sample is one observation produced by a feature extractor. Every sample
// within a domain carries the same key set.
type Sample interface {
	NumericFeatures() map[string]float64
	CategoricalFeatures() map[string]string
	Timestamp() time.Time
}

// Schema lists the feature columns monitored for one domain. Comparison
// results are filtered down to this set before they are reported.
type Schema struct {
	Numeric     []string
	Categorical []string
}

func (s Schema) Contains(name string) bool {
	for _, n := range s.Numeric {
		if n == name {
			return true
		}
	}
	for _, n := range s.Categorical {
		if n == name {
			return true
		}
	}
	return false
}

// Dataset is a column-oriented copy of one window, handed to the external
// comparison service.
type Dataset struct {
	Numeric     map[string][]float64 `json:"numeric"`
	Categorical map[string][]string  `json:"categorical"`
	Size        int                  `json:"size"`
}

// ColumnResult is the per-feature outcome of a statistical drift test.
type ColumnResult struct {
	DriftDetected bool    `json:"drift_detected"`
	DriftScore    float64 `json:"drift_score"`
	StatTestName  string  `json:"stattest_name"`
}

// ComparisonResult is the raw answer of the external drift-test collaborator,
// before filtering to the domain schema.
type ComparisonResult struct {
	DatasetDrift           bool
	DriftShare             float64
	NumberOfDriftedColumns int
	Columns                map[string]ColumnResult
}

// Comparer compares two labeled datasets and reports per-feature and
// aggregate drift. The statistical tests themselves live behind this
// contract; this service only decides what gets compared and when.
type Comparer interface {
	Compare(ctx context.Context, reference, current Dataset) (*ComparisonResult, error)
}
