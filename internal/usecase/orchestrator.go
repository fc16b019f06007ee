package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/domain/service"
	applogger "FinTrain/pkg/logger"
	xutil "FinTrain/pkg/util"
)

// Orchestrator trains every configured architecture of a unit and persists
// the candidates that pass validation.
type Orchestrator struct {
	curator    *Curator
	factory    service.ModelFactory
	artifacts  domrepo.ArtifactStore
	results    domrepo.ResultLogger
	importance service.ImportanceCalculator
	sink       domrepo.ImportanceSink
	metrics    domrepo.Metrics
	cfg        Config
	loc        *time.Location
	clock      func() time.Time
	l          *applogger.Logger
}

type OrchestratorOption func(*Orchestrator)

func WithResultLogger(r domrepo.ResultLogger) OrchestratorOption {
	return func(o *Orchestrator) { o.results = r }
}

func WithImportance(calc service.ImportanceCalculator, sink domrepo.ImportanceSink) OrchestratorOption {
	return func(o *Orchestrator) {
		o.importance = calc
		o.sink = sink
	}
}

func WithMetrics(m domrepo.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLocation sets the zone of metadata timestamps.
func WithLocation(loc *time.Location) OrchestratorOption {
	return func(o *Orchestrator) {
		if loc != nil {
			o.loc = loc
		}
	}
}

func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

func WithLogger(l *applogger.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.l = l
		}
	}
}

func NewOrchestrator(curator *Curator, factory service.ModelFactory, artifacts domrepo.ArtifactStore, cfg Config, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		curator:   curator,
		factory:   factory,
		artifacts: artifacts,
		cfg:       cfg,
		loc:       time.UTC,
		clock:     time.Now,
		l:         applogger.NewNop(),
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TrainUnit returns one outcome per architecture, or a single outcome with
// an empty architecture when the unit is skipped or fails before training.
func (o *Orchestrator) TrainUnit(ctx context.Context, unit models.TrainingUnit) []models.TrainingOutcome {
	start := o.clock()
	l := o.l.With(applogger.String("unit", unit.String()))

	set, err := o.curate(ctx, unit)
	if err != nil {
		out := models.TrainingOutcome{RunID: RunIDFrom(ctx), Unit: unit}
		var skipErr *SkipError
		if errors.As(err, &skipErr) {
			l.Info("unit skipped", applogger.String("status", string(skipErr.Status)), applogger.String("detail", skipErr.Detail))
			out.Status = skipErr.Status
		} else {
			l.Error("unit failed before training", applogger.Error(err))
			out = o.failed(ctx, out, err)
		}
		out.Duration = o.clock().Sub(start)
		o.metrics.RecordOutcome(unit.Horizon, "", string(out.Status))
		return []models.TrainingOutcome{out}
	}

	o.metrics.RecordCorrective(unit.Symbol, unit.Horizon, len(set.Corrective))
	l.Info("unit curated",
		applogger.Int("window", set.Primary.Window),
		applogger.Int("input_size", set.Primary.InputSize),
		applogger.Int("train", len(set.Primary.Train)),
		applogger.Int("val", len(set.Primary.Val)),
		applogger.Int("corrective", len(set.Corrective)),
	)

	outs := make([]models.TrainingOutcome, 0, len(o.cfg.Architectures))
	for _, arch := range o.cfg.Architectures {
		outs = append(outs, o.trainArch(ctx, set, arch))
	}
	o.metrics.RecordLatency("train_unit", o.clock().Sub(start).Seconds())
	return outs
}

// curate turns a panic in any curation collaborator into an error so it is
// recorded as a failed unit.
func (o *Orchestrator) curate(ctx context.Context, unit models.TrainingUnit) (set *CuratedSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			set, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return o.curator.Curate(ctx, unit)
}

// FailUnit records err as a failed unit-level outcome: zero metrics, a
// failed(<err>) result-log entry and outcome metrics.
func (o *Orchestrator) FailUnit(ctx context.Context, unit models.TrainingUnit, err error) models.TrainingOutcome {
	out := o.failed(ctx, models.TrainingOutcome{RunID: RunIDFrom(ctx), Unit: unit}, err)
	o.metrics.RecordOutcome(unit.Horizon, "", string(out.Status))
	return out
}

func (o *Orchestrator) trainArch(ctx context.Context, set *CuratedSet, arch string) (out models.TrainingOutcome) {
	start := o.clock()
	unit := set.Unit
	out = models.TrainingOutcome{
		RunID:             RunIDFrom(ctx),
		Unit:              unit,
		Architecture:      arch,
		CorrectiveSamples: len(set.Corrective),
		Warnings:          append([]string(nil), set.Warnings...),
	}
	l := o.l.With(applogger.String("unit", unit.String()), applogger.String("model", arch))

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			l.Error("architecture panicked", applogger.Error(err))
			out = o.failed(ctx, out, err)
		}
		out.Duration = o.clock().Sub(start)
		o.metrics.RecordOutcome(unit.Horizon, arch, string(out.Status))
	}()

	if err := o.fit(ctx, set, arch, &out, l); err != nil {
		l.Error("architecture failed", applogger.Error(err))
		return o.failed(ctx, out, err)
	}
	return out
}

func (o *Orchestrator) fit(ctx context.Context, set *CuratedSet, arch string, out *models.TrainingOutcome, l *applogger.Logger) error {
	unit, data := set.Unit, set.Primary
	key := unit.Key(arch)

	m, err := o.factory.New(arch, data.InputSize, data.Window)
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	if state, found, err := o.artifacts.Load(ctx, key); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("checkpoint load: %v", err))
		l.Warn("checkpoint unreadable, training fresh", applogger.Error(err))
	} else if found {
		if err := m.UnmarshalState(state); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("checkpoint restore: %v", err))
			l.Warn("checkpoint incompatible, training fresh", applogger.Error(err))
			if m, err = o.factory.New(arch, data.InputSize, data.Window); err != nil {
				return fmt.Errorf("create model: %w", err)
			}
		} else {
			l.Debug("resuming from checkpoint")
		}
	}

	rng := rand.New(rand.NewSource(o.seedFor(key)))
	if len(set.Corrective) > 0 {
		for pass := 0; pass < o.cfg.CorrectivePasses; pass++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, batch := range shuffledBatches(set.Corrective, o.cfg.CorrectiveBatchSize, rng) {
				loss, step := m.Backward(batch)
				if !isFinite(loss) {
					continue
				}
				step()
			}
		}
	}
	for epoch := 0; epoch < o.cfg.PrimaryEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, batch := range shuffledBatches(data.Train, o.cfg.PrimaryBatchSize, rng) {
			loss, step := m.Backward(batch)
			if !isFinite(loss) {
				l.Warn("non-finite loss, ending epoch", applogger.Int("epoch", epoch))
				break
			}
			step()
		}
	}

	met := Evaluate(m, data.Val)
	out.Metrics = met
	o.metrics.RecordValidation(unit.Symbol, unit.Horizon, arch, met.Accuracy, met.F1, met.Loss)

	if met.Accuracy >= 1.0 && distinctLabels(data.Val) <= o.cfg.OverfitLabelDiversityLimit {
		l.Warn("overfit detected, model not saved",
			applogger.Float64("accuracy", met.Accuracy),
			applogger.Int("val_labels", distinctLabels(data.Val)),
		)
		out.Status = models.StatusRejectedOverfit
		o.logResult(ctx, out, fmt.Sprintf("overfit(%s)", arch), met)
		return nil
	}

	state, err := m.MarshalState()
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := o.artifacts.Save(ctx, key, state); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	out.Status = models.StatusTrained

	meta := models.ModelMeta{
		Symbol:    unit.Symbol,
		Strategy:  unit.Horizon,
		Model:     arch,
		Accuracy:  round(met.Accuracy, 4),
		F1Score:   round(met.F1, 4),
		Loss:      round(met.Loss, 6),
		Timestamp: xutil.FormatStamp(o.clock(), o.loc),
	}
	if err := o.artifacts.SaveMeta(ctx, key, meta); err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("metadata: %v", err))
		l.Warn("metadata not saved", applogger.Error(err))
	}
	o.logResult(ctx, out, arch, met)

	if o.importance != nil && o.sink != nil {
		imps, err := o.importance.Compute(ctx, m, data.Val, data.Columns)
		if err == nil {
			err = o.sink.SaveFeatureImportance(ctx, unit.Symbol, unit.Horizon, arch, imps)
		}
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("feature importance: %v", err))
			l.Warn("feature importance not saved", applogger.Error(err))
		}
	}

	l.Info("model trained",
		applogger.Float64("accuracy", met.Accuracy),
		applogger.Float64("f1", met.F1),
		applogger.Float64("loss", met.Loss),
	)
	return nil
}

// failed turns out into a failed outcome with zero metrics and logs it.
func (o *Orchestrator) failed(ctx context.Context, out models.TrainingOutcome, err error) models.TrainingOutcome {
	out.Status = models.StatusFailed
	out.Metrics = models.Metrics{}
	out.Err = err.Error()
	o.metrics.RecordError("train_" + out.Unit.Horizon)
	o.logResult(ctx, &out, fmt.Sprintf("failed(%s)", err), models.Metrics{})
	return out
}

// logResult writes a result-log entry. Failures become warnings on out.
func (o *Orchestrator) logResult(ctx context.Context, out *models.TrainingOutcome, label string, met models.Metrics) {
	if o.results == nil {
		return
	}
	err := o.results.LogTrainingResult(ctx, models.TrainingLogEntry{
		RunID:    out.RunID,
		Symbol:   out.Unit.Symbol,
		Horizon:  out.Unit.Horizon,
		Label:    label,
		Accuracy: met.Accuracy,
		F1:       met.F1,
		Loss:     met.Loss,
		LoggedAt: o.clock(),
	})
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("result log: %v", err))
		o.l.Warn("training result not logged", applogger.String("label", label), applogger.Error(err))
	}
}

func (o *Orchestrator) seedFor(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return o.cfg.Seed ^ int64(h.Sum64()>>1)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(string, string, string) {}
func (nopMetrics) RecordValidation(string, string, string, float64, float64, float64) {}
func (nopMetrics) RecordCorrective(string, string, int) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}
