package drift

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ReasonInsufficientReference = "insufficient_reference_data"
	ReasonInsufficientCurrent   = "insufficient_current_data"
	ReasonComparisonError       = "error"
)

// Report is the normalized result of one successful drift comparison. A new
// report replaces the previous one; no history is kept beyond the last.
type Report struct {
	DatasetDrift       bool                    `json:"dataset_drift"`
	DriftShare         float64                 `json:"drift_share"`
	NumDriftedFeatures int                     `json:"num_drifted_features"`
	FeatureScores      map[string]ColumnResult `json:"feature_drift_scores"`
	ReferenceSize      int                     `json:"reference_size"`
	CurrentSize        int                     `json:"current_size"`
	ComputedAt         time.Time               `json:"timestamp"`
}

// Unready signals an expected warm-up condition, not an error. Callers must
// branch on it explicitly rather than reading it as "no drift".
type Unready struct {
	Reason                string `json:"reason"`
	ReferenceSize         int    `json:"reference_size"`
	CurrentSize           int    `json:"current_size"`
	RequiredReferenceSize int    `json:"required_reference_size,omitempty"`
	RequiredCurrentSize   int    `json:"required_current_size,omitempty"`
	Message               string `json:"message"`
}

// Failure records a comparison the external collaborator could not complete.
// Window state is unaffected and monitoring continues.
type Failure struct {
	Detail string `json:"error"`
}

// Outcome is the union of the three possible results of a drift check.
// Exactly one field is non-nil.
type Outcome struct {
	Report  *Report
	Unready *Unready
	Failure *Failure
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Report != nil:
		return json.Marshal(o.Report)
	case o.Unready != nil:
		return json.Marshal(struct {
			DriftDetected bool `json:"drift_detected"`
			*Unready
		}{false, o.Unready})
	case o.Failure != nil:
		return json.Marshal(struct {
			DriftDetected bool   `json:"drift_detected"`
			Reason        string `json:"reason"`
			Error         string `json:"error"`
			Message       string `json:"message"`
		}{false, ReasonComparisonError, o.Failure.Detail,
			fmt.Sprintf("Error during drift detection: %s", o.Failure.Detail)})
	}
	return []byte("null"), nil
}
