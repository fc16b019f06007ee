package repository

import (
	"context"

	"FinTrain/internal/domain/models"
)

// MarketHistory returns raw candles for a unit, oldest first.
type MarketHistory interface {
	GetHistory(ctx context.Context, symbol, horizon string) ([]models.Candle, error)
}

// CorrectiveStore holds samples of past wrong predictions.
type CorrectiveStore interface {
	// LoadCorrectiveSamples returns samples for the unit whose window is
	// exactly window rows of inputWidth columns.
	LoadCorrectiveSamples(ctx context.Context, symbol, horizon string, inputWidth, window int) ([]models.LabeledSample, error)
	StoreWrongPrediction(ctx context.Context, wp models.WrongPrediction, fingerprint string) error
}

// FailureStore is the failure-case store plus the failure-pattern log.
type FailureStore interface {
	KnownFailures(ctx context.Context) ([]string, error)
	PatternCounts(ctx context.Context) (map[string]int, error)
	RecordFailure(ctx context.Context, fingerprint string) error
}

// ResultLogger persists training-result log entries.
type ResultLogger interface {
	LogTrainingResult(ctx context.Context, entry models.TrainingLogEntry) error
}

// ImportanceSink persists feature attributions of an accepted model.
type ImportanceSink interface {
	SaveFeatureImportance(ctx context.Context, symbol, horizon, arch string, importances []models.FeatureImportance) error
}

// ArtifactStore is the versioned model store keyed by TrainingUnit.Key.
type ArtifactStore interface {
	// Load returns the prior state, or found=false when none exists.
	Load(ctx context.Context, key string) (state []byte, found bool, err error)
	Save(ctx context.Context, key string, state []byte) error
	SaveMeta(ctx context.Context, key string, meta models.ModelMeta) error
	LoadMeta(ctx context.Context, key string) (models.ModelMeta, bool, error)
}

// OutcomePublisher fans outcomes out to downstream monitoring.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome models.TrainingOutcome) error
}

// Metrics records training metrics.
type Metrics interface {
	RecordOutcome(horizon, model, status string)
	RecordValidation(symbol, horizon, model string, accuracy, f1, loss float64)
	RecordCorrective(symbol, horizon string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
