package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FinTrain/internal/domain/models"
	"FinTrain/pkg/cache"
	applogger "FinTrain/pkg/logger"
	"FinTrain/pkg/queue"
)

// TrainJobType is the queue message type of training requests.
const TrainJobType = "train"

// TrainPayload selects one unit, or every unit when Symbol is empty.
type TrainPayload struct {
	Symbol  string `json:"symbol,omitempty"`
	Horizon string `json:"horizon,omitempty"`
}

// Scope is the lock and log name of the request.
func (p TrainPayload) Scope() string {
	if p.Symbol == "" {
		return "all"
	}
	return p.Symbol + ":" + p.Horizon
}

// BatchRunner is the part of BatchDriver the job uses.
type BatchRunner interface {
	TrainAll(ctx context.Context) models.BatchReport
	TrainOne(ctx context.Context, symbol, horizon string) (models.BatchReport, error)
}

// TrainJob runs queued training requests. A lock per scope keeps two
// workers from training the same units at once.
type TrainJob struct {
	runner  BatchRunner
	locks   cache.Service
	lockTTL time.Duration
	l       *applogger.Logger
}

func NewTrainJob(runner BatchRunner, locks cache.Service, lockTTL time.Duration, l *applogger.Logger) *TrainJob {
	if l == nil {
		l = applogger.NewNop()
	}
	return &TrainJob{runner: runner, locks: locks, lockTTL: lockTTL, l: l}
}

func (j *TrainJob) Name() string { return "train-models" }

func (j *TrainJob) Type() string { return TrainJobType }

func (j *TrainJob) Handle(ctx context.Context, payload json.RawMessage) error {
	p, err := queue.ParsePayload[TrainPayload](payload)
	if err != nil {
		return err
	}
	lockKey := cache.GenerateKeyWithParams("train", p.Scope())
	if j.locks != nil {
		ok, err := j.locks.TryLock(ctx, lockKey, j.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			j.l.Info("training already running", applogger.String("scope", p.Scope()))
			return nil
		}
		defer func() {
			if err := j.locks.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
				j.l.Warn("unlock failed", applogger.String("key", lockKey), applogger.Error(err))
			}
		}()
	}

	var report models.BatchReport
	if p.Symbol == "" {
		report = j.runner.TrainAll(ctx)
	} else if report, err = j.runner.TrainOne(ctx, p.Symbol, p.Horizon); err != nil {
		return err
	}
	j.l.Info("training job done",
		applogger.String("scope", p.Scope()),
		applogger.String("run_id", report.RunID),
		applogger.Int("outcomes", len(report.Outcomes)),
	)
	return nil
}

var _ queue.Job = (*TrainJob)(nil)
