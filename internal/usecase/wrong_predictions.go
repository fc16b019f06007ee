package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/fingerprint"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
)

// WrongPredictionHandler ingests wrong-prediction events into the corrective
// store and the failure-pattern log.
type WrongPredictionHandler struct {
	topic    string
	store    domrepo.CorrectiveStore
	failures domrepo.FailureStore
	metrics  domrepo.Metrics
	validate *validator.Validate
	l        *applogger.Logger
}

func NewWrongPredictionHandler(topic string, store domrepo.CorrectiveStore, failures domrepo.FailureStore, metrics domrepo.Metrics, l *applogger.Logger) *WrongPredictionHandler {
	if l == nil {
		l = applogger.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &WrongPredictionHandler{
		topic:    topic,
		store:    store,
		failures: failures,
		metrics:  metrics,
		validate: validator.New(),
		l:        l,
	}
}

func (h *WrongPredictionHandler) Topic() string { return h.topic }

// Handle rejects malformed events without retry by logging and returning nil.
// Store errors are returned so the consumer retries.
func (h *WrongPredictionHandler) Handle(ctx context.Context, b []byte) error {
	var wp models.WrongPrediction
	if err := json.Unmarshal(b, &wp); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		h.l.Warn("wrong prediction undecodable", applogger.Error(err))
		return nil
	}
	if err := h.validate.Struct(wp); err != nil {
		h.metrics.RecordError("consumer_validate")
		h.l.Warn("wrong prediction invalid", applogger.String("symbol", wp.Symbol), applogger.Error(err))
		return nil
	}
	fp := fingerprint.Fingerprint(wp.Window)
	if fp == fingerprint.Invalid {
		h.metrics.RecordError("consumer_shape")
		h.l.Warn("wrong prediction window malformed", applogger.String("symbol", wp.Symbol))
		return nil
	}

	if err := h.store.StoreWrongPrediction(ctx, wp, fp); err != nil {
		h.metrics.RecordError("consumer_store")
		return fmt.Errorf("store wrong prediction: %w", err)
	}
	if h.failures != nil {
		if err := h.failures.RecordFailure(ctx, fp); err != nil {
			h.metrics.RecordError("failure_pattern")
			h.l.Warn("failure pattern not recorded", applogger.String("fingerprint", fp), applogger.Error(err))
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*WrongPredictionHandler)(nil)
