package service

import (
	"context"

	"FinTrain/internal/domain/models"
)

// FeatureEngineer turns candles into a feature table.
type FeatureEngineer interface {
	ComputeFeatures(ctx context.Context, symbol string, candles []models.Candle, horizon string) (models.FeatureTable, error)
}

// WindowSearcher finds the sequence length for a unit.
type WindowSearcher interface {
	FindBestWindow(ctx context.Context, symbol, horizon string) (int, error)
}

// DatasetBuilder slices feature rows into labeled windows, oldest first.
type DatasetBuilder interface {
	CreateDataset(rows []models.FeatureRow, window int, horizon string) ([]models.LabeledSample, error)
}

// Model is a trainable sequence classifier.
type Model interface {
	Kind() string
	InputSize() int
	// Logits returns unnormalised class scores for one window.
	Logits(w models.FeatureWindow) []float64
	// Backward computes the mean cross-entropy of batch and the gradients.
	// The update is applied only when step is called.
	Backward(batch []models.LabeledSample) (loss float64, step func())
	MarshalState() ([]byte, error)
	UnmarshalState(state []byte) error
}

// ModelFactory creates fresh models.
type ModelFactory interface {
	New(arch string, inputSize, window int) (Model, error)
}

// ImportanceCalculator attributes a model's validation loss to feature columns.
type ImportanceCalculator interface {
	Compute(ctx context.Context, m Model, val []models.LabeledSample, columns []string) ([]models.FeatureImportance, error)
}
