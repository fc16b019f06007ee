// Package nn holds the sequence classifiers trained per unit.
package nn

import (
	"fmt"
	"hash/fnv"

	"FinTrain/internal/domain/service"
)

// Factory creates untrained models.
type Factory struct {
	classes int
	hidden  int
	lr      float64
	seed    int64
}

type FactoryOption func(*Factory)

func WithHiddenSize(n int) FactoryOption {
	return func(f *Factory) {
		if n > 0 {
			f.hidden = n
		}
	}
}

func WithLearningRate(lr float64) FactoryOption {
	return func(f *Factory) {
		if lr > 0 {
			f.lr = lr
		}
	}
}

func WithSeed(seed int64) FactoryOption {
	return func(f *Factory) { f.seed = seed }
}

// NewFactory creates a factory for classifiers over classes labels.
func NewFactory(classes int, opts ...FactoryOption) *Factory {
	f := &Factory{classes: classes, hidden: 32, lr: 1e-3, seed: 42}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New builds a model for arch. The window length does not change the
// parameter shapes, so checkpoints survive a window change.
func (f *Factory) New(arch string, inputSize, window int) (service.Model, error) {
	if inputSize <= 0 {
		return nil, fmt.Errorf("input size must be positive, got %d", inputSize)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if f.classes < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", f.classes)
	}
	return newModel(arch, inputSize, f.hidden, f.classes, f.archSeed(arch), f.lr)
}

func (f *Factory) archSeed(arch string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(arch))
	return f.seed ^ int64(h.Sum64()>>1)
}

var _ service.ModelFactory = (*Factory)(nil)
