// Package importance attributes validation loss to feature columns.
package importance

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/service"
	"FinTrain/internal/services/nn"
)

// Permutation scores a column by how much the mean validation loss rises
// when that column is shuffled across samples.
type Permutation struct {
	seed    int64
	repeats int
}

func NewPermutation(seed int64, repeats int) *Permutation {
	if repeats <= 0 {
		repeats = 1
	}
	return &Permutation{seed: seed, repeats: repeats}
}

// Compute returns one importance per column, highest first.
func (p *Permutation) Compute(ctx context.Context, m service.Model, val []models.LabeledSample, columns []string) ([]models.FeatureImportance, error) {
	if len(val) == 0 {
		return nil, fmt.Errorf("no validation samples")
	}
	if _, width, ok := val[0].Window.Shape(); !ok || width != len(columns) {
		return nil, fmt.Errorf("validation width does not match %d columns", len(columns))
	}

	base := meanLoss(m, val)
	rng := rand.New(rand.NewSource(p.seed))
	out := make([]models.FeatureImportance, 0, len(columns))
	for c, name := range columns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		total := 0.0
		for r := 0; r < p.repeats; r++ {
			total += meanLoss(m, permuteColumn(val, c, rng.Perm(len(val)))) - base
		}
		out = append(out, models.FeatureImportance{Feature: name, Importance: total / float64(p.repeats)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out, nil
}

func meanLoss(m service.Model, samples []models.LabeledSample) float64 {
	total := 0.0
	for _, s := range samples {
		total += nn.CrossEntropy(m.Logits(s.Window), s.Label)
	}
	return total / float64(len(samples))
}

// permuteColumn copies samples with column c of sample i taken from sample perm[i].
func permuteColumn(samples []models.LabeledSample, c int, perm []int) []models.LabeledSample {
	out := make([]models.LabeledSample, len(samples))
	for i, s := range samples {
		src := samples[perm[i]].Window
		w := make(models.FeatureWindow, len(s.Window))
		for t, row := range s.Window {
			w[t] = append([]float64(nil), row...)
			if t < len(src) && c < len(src[t]) {
				w[t][c] = src[t][c]
			}
		}
		out[i] = models.LabeledSample{Window: w, Label: s.Label}
	}
	return out
}

var _ service.ImportanceCalculator = (*Permutation)(nil)
