package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	outcomes      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	valAccuracy   *prometheus.GaugeVec
	valF1         *prometheus.GaugeVec
	valLoss       *prometheus.GaugeVec
	correctiveLen *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_outcomes_total",
				Help: "Training outcomes by horizon, architecture and status",
			},
			[]string{"horizon", "model", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		valAccuracy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_validation_accuracy",
				Help: "Validation accuracy of the last accepted model",
			},
			[]string{"symbol", "horizon", "model"},
		),
		valF1: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_validation_f1",
				Help: "Validation macro-F1 of the last accepted model",
			},
			[]string{"symbol", "horizon", "model"},
		),
		valLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_validation_loss",
				Help: "Validation loss of the last accepted model",
			},
			[]string{"symbol", "horizon", "model"},
		),
		correctiveLen: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_corrective_samples",
				Help: "Corrective samples admitted in the last pass",
			},
			[]string{"symbol", "horizon"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrain_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"operation"},
		),
	}
}

// RecordOutcome counts one training outcome.
func (r *Recorder) RecordOutcome(horizon, model, status string) {
	r.outcomes.WithLabelValues(horizon, model, status).Inc()
}

// RecordValidation records metrics of an accepted model.
func (r *Recorder) RecordValidation(symbol, horizon, model string, accuracy, f1, loss float64) {
	r.valAccuracy.WithLabelValues(symbol, horizon, model).Set(accuracy)
	r.valF1.WithLabelValues(symbol, horizon, model).Set(f1)
	r.valLoss.WithLabelValues(symbol, horizon, model).Set(loss)
}

// RecordCorrective records the size of an admitted corrective set.
func (r *Recorder) RecordCorrective(symbol, horizon string, n int) {
	r.correctiveLen.WithLabelValues(symbol, horizon).Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
