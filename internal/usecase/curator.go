package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/domain/service"
	"FinTrain/internal/services/failures"
	"FinTrain/internal/services/fingerprint"
	applogger "FinTrain/pkg/logger"
)

// PrimaryData is the temporally split dataset of one unit.
type PrimaryData struct {
	Window    int
	InputSize int
	Columns   []string
	Train     []models.LabeledSample
	Val       []models.LabeledSample
	// Samples removed by the validity filter.
	Dropped int
}

// CuratedSet is everything the orchestrator needs to train one unit.
type CuratedSet struct {
	Unit       models.TrainingUnit
	Primary    *PrimaryData
	Corrective []models.LabeledSample
	Warnings   []string
}

// Curator assembles training data for a unit.
type Curator struct {
	history    domrepo.MarketHistory
	engineer   service.FeatureEngineer
	windows    service.WindowSearcher
	builder    service.DatasetBuilder
	corrective domrepo.CorrectiveStore
	memory     *failures.Memory
	cfg        Config
	clock      func() time.Time
	l          *applogger.Logger
}

func NewCurator(
	history domrepo.MarketHistory,
	engineer service.FeatureEngineer,
	windows service.WindowSearcher,
	builder service.DatasetBuilder,
	corrective domrepo.CorrectiveStore,
	memory *failures.Memory,
	cfg Config,
	l *applogger.Logger,
) *Curator {
	if l == nil {
		l = applogger.NewNop()
	}
	if memory == nil {
		memory = failures.NewMemory(nil, l)
	}
	return &Curator{
		history:    history,
		engineer:   engineer,
		windows:    windows,
		builder:    builder,
		corrective: corrective,
		memory:     memory,
		cfg:        cfg,
		clock:      time.Now,
		l:          l,
	}
}

// Curate builds the primary dataset and then the corrective set matching its shape.
func (c *Curator) Curate(ctx context.Context, unit models.TrainingUnit) (*CuratedSet, error) {
	primary, err := c.BuildPrimary(ctx, unit)
	if err != nil {
		return nil, err
	}
	corrective, warns := c.BuildCorrective(ctx, unit, primary.InputSize, primary.Window)
	return &CuratedSet{Unit: unit, Primary: primary, Corrective: corrective, Warnings: warns}, nil
}

// BuildPrimary returns a *SkipError when the unit lacks data at any stage.
func (c *Curator) BuildPrimary(ctx context.Context, unit models.TrainingUnit) (*PrimaryData, error) {
	candles, err := c.history.GetHistory(ctx, unit.Symbol, unit.Horizon)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if len(candles) == 0 {
		return nil, skip(models.StatusSkippedNoData, "no candles")
	}

	table, err := c.engineer.ComputeFeatures(ctx, unit.Symbol, candles, unit.Horizon)
	if err != nil {
		return nil, fmt.Errorf("compute features: %w", err)
	}
	if len(table.Rows) < c.cfg.MinFeatureRows {
		return nil, skip(models.StatusSkippedFeatures, "%d feature rows, need %d", len(table.Rows), c.cfg.MinFeatureRows)
	}
	rows := c.cleanRows(table.Rows)

	window, err := c.windows.FindBestWindow(ctx, unit.Symbol, unit.Horizon)
	if err != nil {
		return nil, skip(models.StatusSkippedNoWindow, "%v", err)
	}
	if window <= 0 {
		return nil, skip(models.StatusSkippedNoWindow, "window %d", window)
	}

	samples, err := c.builder.CreateDataset(rows, window, unit.Horizon)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	if len(samples) == 0 {
		return nil, skip(models.StatusSkippedEmptyDataset, "window %d over %d rows", window, len(rows))
	}

	valid, width := filterValid(samples, c.cfg.NumClasses)
	dropped := len(samples) - len(valid)
	if dropped > 0 {
		c.l.Warn("malformed samples dropped",
			applogger.String("unit", unit.String()),
			applogger.Int("dropped", dropped),
		)
	}
	if len(valid) < c.cfg.MinSequences {
		return nil, skip(models.StatusSkippedSequences, "%d valid sequences, need %d", len(valid), c.cfg.MinSequences)
	}

	train, val, ok := splitTemporal(valid, c.cfg.ValidationFraction)
	if !ok {
		return nil, skip(models.StatusSkippedNoValidationData, "%d sequences", len(valid))
	}
	return &PrimaryData{
		Window:    window,
		InputSize: width,
		Columns:   table.Columns,
		Train:     train,
		Val:       val,
		Dropped:   dropped,
	}, nil
}

// BuildCorrective loads past wrong predictions of the unit's shape and admits
// each fingerprint at most once, excluding known and frequent failures.
// Store errors become warnings and an empty set.
func (c *Curator) BuildCorrective(ctx context.Context, unit models.TrainingUnit, inputSize, window int) ([]models.LabeledSample, []string) {
	if c.corrective == nil {
		return nil, nil
	}
	stored, err := c.corrective.LoadCorrectiveSamples(ctx, unit.Symbol, unit.Horizon, inputSize, window)
	if err != nil {
		c.l.Warn("corrective samples unavailable",
			applogger.String("unit", unit.String()),
			applogger.Error(err),
		)
		return nil, []string{fmt.Sprintf("corrective store: %v", err)}
	}
	if len(stored) == 0 {
		return nil, nil
	}

	known := c.memory.KnownFailureFingerprints(ctx)
	frequent := c.memory.FrequentFailureFingerprints(ctx, c.cfg.FrequentFailureThreshold)
	admitted := admitCorrective(stored, window, inputSize, c.cfg.NumClasses, known, frequent)

	c.l.Debug("corrective samples curated",
		applogger.String("unit", unit.String()),
		applogger.Int("stored", len(stored)),
		applogger.Int("admitted", len(admitted)),
	)
	return admitted, nil
}

func admitCorrective(stored []models.LabeledSample, window, width, numClasses int, known, frequent failures.Set) []models.LabeledSample {
	used := failures.Set{}
	out := make([]models.LabeledSample, 0, len(stored))
	for _, s := range stored {
		r, w, ok := s.Window.Shape()
		if !ok || r != window || w != width {
			continue
		}
		if s.Label < 0 || s.Label >= numClasses {
			continue
		}
		fp := fingerprint.Fingerprint(s.Window)
		if fp == fingerprint.Invalid || used.Has(fp) || known.Has(fp) || frequent.Has(fp) {
			continue
		}
		used[fp] = struct{}{}
		out = append(out, s)
	}
	return out
}

// cleanRows stamps rows lacking a time and drops rows with non-finite values.
func (c *Curator) cleanRows(rows []models.FeatureRow) []models.FeatureRow {
	now := c.clock()
	out := make([]models.FeatureRow, 0, len(rows))
	for _, r := range rows {
		if r.Time.IsZero() {
			r.Time = now
		}
		if !finiteRow(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func finiteRow(r models.FeatureRow) bool {
	if math.IsNaN(r.Close) || math.IsInf(r.Close, 0) {
		return false
	}
	for _, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// filterValid keeps rectangular samples shaped like the first valid one with
// a label in [0, numClasses). It returns the kept samples and their width.
func filterValid(samples []models.LabeledSample, numClasses int) ([]models.LabeledSample, int) {
	out := make([]models.LabeledSample, 0, len(samples))
	rows, width := 0, 0
	for _, s := range samples {
		r, w, ok := s.Window.Shape()
		if !ok || s.Label < 0 || s.Label >= numClasses {
			continue
		}
		if len(out) == 0 {
			rows, width = r, w
		} else if r != rows || w != width {
			continue
		}
		out = append(out, s)
	}
	return out, width
}

// splitTemporal holds out the last int(n*fraction) samples for validation.
func splitTemporal(samples []models.LabeledSample, fraction float64) (train, val []models.LabeledSample, ok bool) {
	valLen := int(float64(len(samples)) * fraction)
	if valLen == 0 || valLen >= len(samples) {
		return nil, nil, false
	}
	cut := len(samples) - valLen
	return samples[:cut], samples[cut:], true
}
