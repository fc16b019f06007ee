package usecase

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/service"
	"FinTrain/internal/services/nn"
)

// Evaluate scores m on val: accuracy, macro F1 and mean cross-entropy.
func Evaluate(m service.Model, val []models.LabeledSample) models.Metrics {
	if len(val) == 0 {
		return models.Metrics{}
	}
	truth := make([]int, len(val))
	preds := make([]int, len(val))
	correct := 0
	loss := 0.0
	for i, s := range val {
		logits := m.Logits(s.Window)
		truth[i] = s.Label
		preds[i] = nn.Argmax(logits)
		if preds[i] == truth[i] {
			correct++
		}
		loss += nn.CrossEntropy(logits, s.Label)
	}
	return models.Metrics{
		Accuracy: float64(correct) / float64(len(val)),
		F1:       MacroF1(truth, preds),
		Loss:     loss / float64(len(val)),
	}
}

// MacroF1 averages per-label F1 over labels present in truth or preds.
// A label with no predicted or no true members scores 0 on that side.
func MacroF1(truth, preds []int) float64 {
	type counts struct{ tp, fp, fn int }
	per := map[int]*counts{}
	get := func(l int) *counts {
		c, ok := per[l]
		if !ok {
			c = &counts{}
			per[l] = c
		}
		return c
	}
	for i := range truth {
		t, p := truth[i], preds[i]
		if t == p {
			get(t).tp++
			continue
		}
		get(p).fp++
		get(t).fn++
	}
	if len(per) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range per {
		var precision, recall float64
		if c.tp+c.fp > 0 {
			precision = float64(c.tp) / float64(c.tp+c.fp)
		}
		if c.tp+c.fn > 0 {
			recall = float64(c.tp) / float64(c.tp+c.fn)
		}
		if precision+recall > 0 {
			sum += 2 * precision * recall / (precision + recall)
		}
	}
	return sum / float64(len(per))
}

func distinctLabels(samples []models.LabeledSample) int {
	seen := map[int]struct{}{}
	for _, s := range samples {
		seen[s.Label] = struct{}{}
	}
	return len(seen)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// round keeps non-finite values as they are.
func round(v float64, places int32) float64 {
	if !isFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// shuffledBatches returns the samples in random order cut into batches.
func shuffledBatches(samples []models.LabeledSample, size int, rng *rand.Rand) [][]models.LabeledSample {
	if size <= 0 {
		size = len(samples)
	}
	order := rng.Perm(len(samples))
	out := make([][]models.LabeledSample, 0, (len(samples)+size-1)/size)
	for start := 0; start < len(order); start += size {
		end := start + size
		if end > len(order) {
			end = len(order)
		}
		b := make([]models.LabeledSample, 0, end-start)
		for _, i := range order[start:end] {
			b = append(b, samples[i])
		}
		out = append(out, b)
	}
	return out
}
