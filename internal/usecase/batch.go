package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	applogger "FinTrain/pkg/logger"
)

type runIDKey struct{}

// WithRunID tags ctx with the batch run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the batch run ID of ctx, or "".
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// UnitTrainer trains one unit.
type UnitTrainer interface {
	TrainUnit(ctx context.Context, unit models.TrainingUnit) []models.TrainingOutcome
}

// UnitFailer records a unit that could not be trained the same way the
// trainer records its own failures.
type UnitFailer interface {
	FailUnit(ctx context.Context, unit models.TrainingUnit, err error) models.TrainingOutcome
}

// OutcomeNotifier receives every outcome as soon as its unit finishes.
type OutcomeNotifier interface {
	NotifyOutcome(o models.TrainingOutcome)
}

// BatchDriver runs the orchestrator over every (horizon, symbol) pair.
type BatchDriver struct {
	trainer   UnitTrainer
	symbols   []string
	horizons  []string
	workers   int
	publisher domrepo.OutcomePublisher
	notifiers []OutcomeNotifier
	clock     func() time.Time
	l         *applogger.Logger
}

type BatchOption func(*BatchDriver)

// WithWorkers bounds how many units train at once. 1 is sequential.
func WithWorkers(n int) BatchOption {
	return func(d *BatchDriver) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithOutcomePublisher(p domrepo.OutcomePublisher) BatchOption {
	return func(d *BatchDriver) { d.publisher = p }
}

func WithNotifier(n OutcomeNotifier) BatchOption {
	return func(d *BatchDriver) { d.notifiers = append(d.notifiers, n) }
}

func WithBatchClock(clock func() time.Time) BatchOption {
	return func(d *BatchDriver) { d.clock = clock }
}

func NewBatchDriver(trainer UnitTrainer, symbols, horizons []string, l *applogger.Logger, opts ...BatchOption) *BatchDriver {
	if l == nil {
		l = applogger.NewNop()
	}
	d := &BatchDriver{
		trainer:  trainer,
		symbols:  symbols,
		horizons: horizons,
		workers:  1,
		clock:    time.Now,
		l:        l,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Units lists the pairs of a full batch, horizon outer and symbol inner.
func (d *BatchDriver) Units() []models.TrainingUnit {
	units := make([]models.TrainingUnit, 0, len(d.horizons)*len(d.symbols))
	for _, h := range d.horizons {
		for _, s := range d.symbols {
			units = append(units, models.TrainingUnit{Symbol: s, Horizon: h})
		}
	}
	return units
}

// TrainAll attempts every configured pair exactly once.
func (d *BatchDriver) TrainAll(ctx context.Context) models.BatchReport {
	return d.run(ctx, d.Units())
}

// TrainOne trains a single pair.
func (d *BatchDriver) TrainOne(ctx context.Context, symbol, horizon string) (models.BatchReport, error) {
	if symbol == "" {
		return models.BatchReport{}, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidHorizon(horizon) {
		return models.BatchReport{}, fmt.Errorf("unsupported horizon: %s", horizon)
	}
	return d.run(ctx, []models.TrainingUnit{{Symbol: symbol, Horizon: horizon}}), nil
}

func (d *BatchDriver) run(ctx context.Context, units []models.TrainingUnit) models.BatchReport {
	report := models.BatchReport{RunID: uuid.NewString(), Started: d.clock()}
	ctx = WithRunID(ctx, report.RunID)
	l := d.l.With(applogger.String("run_id", report.RunID))
	l.Info("batch started", applogger.Int("units", len(units)), applogger.Int("workers", d.workers))

	results := make([][]models.TrainingOutcome, len(units))
	if d.workers <= 1 {
		for i, u := range units {
			results[i] = d.trainSafe(ctx, u)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.workers)
		for i, u := range units {
			g.Go(func() error {
				results[i] = d.trainSafe(ctx, u)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, outs := range results {
		report.Outcomes = append(report.Outcomes, outs...)
	}
	report.Finished = d.clock()
	l.Info("batch finished",
		applogger.Int("outcomes", len(report.Outcomes)),
		applogger.Int("trained", report.Count(models.StatusTrained)),
		applogger.Int("rejected", report.Count(models.StatusRejectedOverfit)),
		applogger.Int("failed", report.Count(models.StatusFailed)),
		applogger.Duration("duration_ms", report.Finished.Sub(report.Started)),
	)
	return report
}

// trainSafe converts anything escaping the trainer into a failed outcome
// and fans the outcomes out.
func (d *BatchDriver) trainSafe(ctx context.Context, u models.TrainingUnit) (outs []models.TrainingOutcome) {
	start := d.clock()
	runID := RunIDFrom(ctx)
	defer func() {
		if r := recover(); r != nil {
			d.l.Error("unit panicked", applogger.String("unit", u.String()), applogger.Any("panic", r))
			outs = []models.TrainingOutcome{d.failUnit(ctx, u, fmt.Errorf("panic: %v", r))}
			outs[0].Duration = d.clock().Sub(start)
		}
		for i := range outs {
			outs[i].RunID = runID
			d.emit(ctx, outs[i])
		}
	}()
	return d.trainer.TrainUnit(ctx, u)
}

func (d *BatchDriver) failUnit(ctx context.Context, u models.TrainingUnit, err error) models.TrainingOutcome {
	if f, ok := d.trainer.(UnitFailer); ok {
		return f.FailUnit(ctx, u, err)
	}
	return models.TrainingOutcome{Unit: u, Status: models.StatusFailed, Err: err.Error()}
}

func (d *BatchDriver) emit(ctx context.Context, o models.TrainingOutcome) {
	if d.publisher != nil {
		if err := d.publisher.PublishOutcome(ctx, o); err != nil {
			d.l.Warn("outcome not published", applogger.String("unit", o.Unit.String()), applogger.Error(err))
		}
	}
	for _, n := range d.notifiers {
		n.NotifyOutcome(o)
	}
}
