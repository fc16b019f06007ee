package nn

import (
	"math"
	"math/rand"
	"testing"

	"FinTrain/internal/domain/models"
)

func separable(n int, seed int64) []models.LabeledSample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.LabeledSample, 0, n)
	for i := 0; i < n; i++ {
		w := make(models.FeatureWindow, 5)
		for t := range w {
			w[t] = []float64{rng.NormFloat64() * 0.1, rng.NormFloat64() * 0.1, rng.NormFloat64() * 0.1}
		}
		label := 0
		if i%2 == 1 {
			label = 1
			for t := range w {
				w[t][0] += 1
			}
		} else {
			for t := range w {
				w[t][0] -= 1
			}
		}
		out = append(out, models.LabeledSample{Window: w, Label: label})
	}
	return out
}

func TestModelsLearnSeparableData(t *testing.T) {
	data := separable(40, 1)
	for _, arch := range models.DefaultArchitectures {
		t.Run(arch, func(t *testing.T) {
			f := NewFactory(2, WithHiddenSize(8), WithLearningRate(0.01))
			m, err := f.New(arch, 3, 5)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			first, step := m.Backward(data)
			if math.IsNaN(first) || math.IsInf(first, 0) {
				t.Fatalf("non-finite initial loss %v", first)
			}
			step()
			last := first
			for i := 0; i < 150; i++ {
				last, step = m.Backward(data)
				step()
			}
			if last >= first {
				t.Fatalf("loss did not decrease: %v -> %v", first, last)
			}
			correct := 0
			for _, s := range data {
				if Argmax(m.Logits(s.Window)) == s.Label {
					correct++
				}
			}
			if correct < len(data)*3/4 {
				t.Fatalf("accuracy too low: %d/%d", correct, len(data))
			}
		})
	}
}

func TestBackwardWithoutStepKeepsParams(t *testing.T) {
	m, err := NewFactory(2).New(models.ArchLSTM, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	data := separable(4, 2)
	before := m.Logits(data[0].Window)
	_, _ = m.Backward(data)
	after := m.Logits(data[0].Window)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("logits changed without step")
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	data := separable(10, 3)
	f := NewFactory(4, WithHiddenSize(6))
	m, _ := f.New(models.ArchTransformer, 3, 5)
	_, step := m.Backward(data)
	step()

	b, err := m.MarshalState()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// a different window length must still accept the checkpoint
	fresh, _ := NewFactory(4, WithHiddenSize(6), WithSeed(7)).New(models.ArchTransformer, 3, 9)
	if err := fresh.UnmarshalState(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := m.Logits(data[0].Window)
	got := fresh.Logits(data[0].Window)
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("logit %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

func TestUnmarshalRejectsMismatch(t *testing.T) {
	f := NewFactory(4, WithHiddenSize(6))
	lstm, _ := f.New(models.ArchLSTM, 3, 5)
	b, _ := lstm.MarshalState()

	tests := []struct {
		name  string
		arch  string
		input int
	}{
		{"other architecture", models.ArchCNNLSTM, 3},
		{"other width", models.ArchLSTM, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := f.New(tt.arch, tt.input, 5)
			if err := m.UnmarshalState(b); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	m, _ := f.New(models.ArchLSTM, 3, 5)
	if err := m.UnmarshalState([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFactoryRejectsBadInput(t *testing.T) {
	f := NewFactory(16)
	if _, err := f.New("gru", 3, 5); err == nil {
		t.Fatalf("unknown architecture accepted")
	}
	if _, err := f.New(models.ArchLSTM, 0, 5); err == nil {
		t.Fatalf("zero input accepted")
	}
	if _, err := NewFactory(1).New(models.ArchLSTM, 3, 5); err == nil {
		t.Fatalf("single class accepted")
	}
}

func TestBackwardIgnoresOutOfRangeLabels(t *testing.T) {
	m, _ := NewFactory(2).New(models.ArchLSTM, 3, 5)
	data := separable(2, 4)
	data[0].Label = 9
	loss, _ := m.Backward(data[:1])
	if !math.IsNaN(loss) {
		t.Fatalf("expected NaN loss for batch without valid labels, got %v", loss)
	}
	loss, _ = m.Backward(data)
	if math.IsNaN(loss) {
		t.Fatalf("valid sample should produce a loss")
	}
}

func TestSoftmaxAndArgmax(t *testing.T) {
	p := Softmax([]float64{1, 2, 3})
	sum := p[0] + p[1] + p[2]
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("softmax sums to %v", sum)
	}
	if Argmax([]float64{0.1, 0.5, 0.5}) != 1 {
		t.Fatalf("argmax should take the first maximum")
	}
	if CrossEntropy([]float64{0, 0}, 0) <= 0 {
		t.Fatalf("cross entropy should be positive")
	}
}
