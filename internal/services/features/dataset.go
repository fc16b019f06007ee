package features

import (
	"fmt"
	"math"
	"sort"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/repository"
	"FinTrain/internal/domain/service"
)

// BucketEdges are the future-return boundaries (fractions) of the 16 classes.
// Class k holds returns r with edges[k-1] <= r < edges[k].
var BucketEdges = []float64{
	-0.03, -0.02, -0.015, -0.01, -0.006, -0.003, -0.001,
	0,
	0.001, 0.003, 0.006, 0.01, 0.015, 0.02, 0.03,
}

// Builder turns feature rows into labeled windows.
type Builder struct {
	edges []float64
}

// NewBuilder creates a dataset builder using BucketEdges.
func NewBuilder() *Builder { return &Builder{edges: BucketEdges} }

// NumClasses is the number of labels the builder emits.
func (b *Builder) NumClasses() int { return len(b.edges) + 1 }

// CreateDataset returns one sample per row that has window-1 predecessors and
// a close HorizonSteps(horizon) rows ahead, oldest first.
func (b *Builder) CreateDataset(rows []models.FeatureRow, window int, horizon string) ([]models.LabeledSample, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	steps := repository.HorizonSteps(horizon)
	last := len(rows) - 1 - steps
	if last < window-1 {
		return nil, nil
	}

	out := make([]models.LabeledSample, 0, last-window+2)
	for i := window - 1; i <= last; i++ {
		cur := rows[i].Close
		fut := rows[i+steps].Close
		if cur <= 0 || math.IsNaN(fut) || math.IsNaN(cur) {
			continue
		}
		w := make(models.FeatureWindow, window)
		for j := 0; j < window; j++ {
			src := rows[i-window+1+j].Values
			w[j] = append([]float64(nil), src...)
		}
		out = append(out, models.LabeledSample{Window: w, Label: b.Bucket(fut/cur - 1)})
	}
	return out, nil
}

// Bucket maps a return to its class index.
func (b *Builder) Bucket(r float64) int {
	return sort.Search(len(b.edges), func(i int) bool { return b.edges[i] > r })
}

var _ service.DatasetBuilder = (*Builder)(nil)
