package models

import (
	"fmt"
	"time"
)

// NumClasses is the default number of return buckets.
const NumClasses = 16

// Architectures trained per unit.
const (
	ArchLSTM        = "lstm"
	ArchCNNLSTM     = "cnn_lstm"
	ArchTransformer = "transformer"
)

// DefaultArchitectures in training order.
var DefaultArchitectures = []string{ArchLSTM, ArchCNNLSTM, ArchTransformer}

// TrainingUnit identifies one (instrument, horizon) training pass.
type TrainingUnit struct {
	Symbol  string `json:"symbol"`
	Horizon string `json:"horizon"`
}

// Key is the storage key of the unit's artifact for arch.
func (u TrainingUnit) Key(arch string) string {
	return fmt.Sprintf("%s_%s_%s", u.Symbol, u.Horizon, arch)
}

func (u TrainingUnit) String() string { return u.Symbol + "/" + u.Horizon }

// FeatureWindow is a sequence of feature vectors, oldest first.
type FeatureWindow [][]float64

// Shape returns (rows, width) and whether the window is a proper matrix.
func (w FeatureWindow) Shape() (int, int, bool) {
	if len(w) == 0 || len(w[0]) == 0 {
		return 0, 0, false
	}
	width := len(w[0])
	for _, row := range w[1:] {
		if len(row) != width {
			return 0, 0, false
		}
	}
	return len(w), width, true
}

// LabeledSample is a window with its class label.
type LabeledSample struct {
	Window FeatureWindow `json:"window"`
	Label  int           `json:"label"`
}

// Status is the result kind of one training attempt.
type Status string

const (
	StatusTrained                 Status = "trained"
	StatusSkippedNoData           Status = "skipped-no-data"
	StatusSkippedFeatures         Status = "skipped-insufficient-features"
	StatusSkippedNoWindow         Status = "skipped-no-window"
	StatusSkippedEmptyDataset     Status = "skipped-empty-dataset"
	StatusSkippedSequences        Status = "skipped-insufficient-sequences"
	StatusSkippedNoValidationData Status = "skipped-no-validation-data"
	StatusRejectedOverfit         Status = "rejected-overfit"
	StatusFailed                  Status = "failed-exception"
)

// Skipped reports whether the status is a data-absence short circuit.
func (s Status) Skipped() bool {
	switch s {
	case StatusSkippedNoData, StatusSkippedFeatures, StatusSkippedNoWindow,
		StatusSkippedEmptyDataset, StatusSkippedSequences, StatusSkippedNoValidationData:
		return true
	}
	return false
}

// Metrics are validation metrics of a candidate model.
type Metrics struct {
	Accuracy float64 `json:"accuracy"`
	F1       float64 `json:"f1"`
	Loss     float64 `json:"loss"`
}

// TrainingOutcome records one (unit, architecture) attempt. Unit level skips
// and failures leave Architecture empty.
type TrainingOutcome struct {
	RunID             string        `json:"run_id,omitempty"`
	Unit              TrainingUnit  `json:"unit"`
	Architecture      string        `json:"architecture,omitempty"`
	Status            Status        `json:"status"`
	Metrics           Metrics       `json:"metrics"`
	Warnings          []string      `json:"warnings,omitempty"`
	CorrectiveSamples int           `json:"corrective_samples"`
	Duration          time.Duration `json:"duration_ns"`
	Err               string        `json:"error,omitempty"`
}

// ModelMeta is the sidecar metadata of a persisted model.
type ModelMeta struct {
	Symbol    string  `json:"symbol"`
	Strategy  string  `json:"strategy"`
	Model     string  `json:"model"`
	Accuracy  float64 `json:"accuracy"`
	F1Score   float64 `json:"f1_score"`
	Loss      float64 `json:"loss"`
	Timestamp string  `json:"timestamp"`
}

// TrainingLogEntry is one row of the training result log.
type TrainingLogEntry struct {
	RunID    string
	Symbol   string
	Horizon  string
	Label    string
	Accuracy float64
	F1       float64
	Loss     float64
	LoggedAt time.Time
}

// FeatureImportance is the attribution of one feature column.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// BatchReport summarises one batch invocation.
type BatchReport struct {
	RunID    string            `json:"run_id"`
	Started  time.Time         `json:"started"`
	Finished time.Time         `json:"finished"`
	Outcomes []TrainingOutcome `json:"outcomes"`
}

// Count returns how many outcomes have status s.
func (r BatchReport) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}
