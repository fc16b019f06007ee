package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRecorderRegistersOnOwnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.RecordOutcome("short", "lstm", "trained")
	r.RecordOutcome("short", "lstm", "trained")
	r.RecordValidation("BTCUSDT", "short", "lstm", 0.5, 0.4, 1.2)
	r.RecordError("curate")
	r.RecordLatency("train_unit", 0.3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				found[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				found[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	if found["fintrain_outcomes_total"] != 2 {
		t.Fatalf("outcomes counter = %v", found["fintrain_outcomes_total"])
	}
	if found["fintrain_validation_accuracy"] != 0.5 {
		t.Fatalf("accuracy gauge = %v", found["fintrain_validation_accuracy"])
	}

	// a second recorder on a fresh registry must not panic
	_ = New(prometheus.NewRegistry())
}
