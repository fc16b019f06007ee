package usecase

import "FinTrain/internal/domain/models"

// Config holds the knobs of curation and training.
type Config struct {
	Architectures       []string
	NumClasses          int
	CorrectivePasses    int
	PrimaryEpochs       int
	CorrectiveBatchSize int
	PrimaryBatchSize    int
	MinFeatureRows      int
	MinSequences        int
	ValidationFraction  float64
	// Pattern-log count at which a fingerprint is excluded from replay.
	FrequentFailureThreshold int
	// Most distinct validation labels for which perfect accuracy is treated as overfit.
	OverfitLabelDiversityLimit int
	Seed                       int64
}

func DefaultConfig() Config {
	return Config{
		Architectures:              append([]string(nil), models.DefaultArchitectures...),
		NumClasses:                 models.NumClasses,
		CorrectivePasses:           6,
		PrimaryEpochs:              20,
		CorrectiveBatchSize:        16,
		PrimaryBatchSize:           32,
		MinFeatureRows:             30,
		MinSequences:               5,
		ValidationFraction:         0.2,
		FrequentFailureThreshold:   5,
		OverfitLabelDiversityLimit: 2,
		Seed:                       42,
	}
}
