package nn

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/service"
)

// Model is a fixed sequence encoder followed by a trainable MLP head.
// A Model is not safe for concurrent use.
type Model struct {
	kind      string
	inputSize int
	hidden    int
	classes   int
	seed      int64
	lr        float64

	enc  encoder
	head *head
	opt  *adam
}

type modelState struct {
	Kind      string    `json:"kind"`
	InputSize int       `json:"input_size"`
	Hidden    int       `json:"hidden"`
	Classes   int       `json:"classes"`
	Seed      int64     `json:"seed"`
	Params    []float64 `json:"params"`
}

func newModel(kind string, inputSize, hidden, classes int, seed int64, lr float64) (*Model, error) {
	m := &Model{kind: kind, inputSize: inputSize, hidden: hidden, classes: classes, seed: seed, lr: lr}
	if err := m.build(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) build() error {
	rng := rand.New(rand.NewSource(m.seed))
	switch m.kind {
	case models.ArchLSTM:
		m.enc = newReservoir(rng, m.inputSize, m.hidden)
	case models.ArchCNNLSTM:
		m.enc = newConvReservoir(rng, m.inputSize, m.hidden)
	case models.ArchTransformer:
		m.enc = newAttention(rng, m.inputSize, m.hidden)
	default:
		return fmt.Errorf("unknown architecture %q", m.kind)
	}
	m.head = newHead(m.enc.dim(), m.hidden, m.classes, rng)
	m.opt = newAdam(m.head.size(), m.lr)
	return nil
}

func (m *Model) Kind() string { return m.kind }

func (m *Model) InputSize() int { return m.inputSize }

// NumClasses is the width of the logits.
func (m *Model) NumClasses() int { return m.classes }

func (m *Model) Logits(w models.FeatureWindow) []float64 {
	_, logits := m.head.forward(m.enc.encode(w))
	return logits
}

// Backward returns the mean batch loss. Samples with an out-of-range label
// contribute nothing.
func (m *Model) Backward(batch []models.LabeledSample) (float64, func()) {
	grads := make([]float64, m.head.size())
	valid := 0
	for _, s := range batch {
		if s.Label >= 0 && s.Label < m.classes {
			valid++
		}
	}
	if valid == 0 {
		return math.NaN(), func() {}
	}
	scale := 1 / float64(valid)
	total := 0.0
	for _, s := range batch {
		if s.Label < 0 || s.Label >= m.classes {
			continue
		}
		total += m.head.accumulate(m.enc.encode(s.Window), s.Label, grads, scale)
	}
	return total / float64(valid), func() { m.opt.step(m.head.params, grads) }
}

func (m *Model) MarshalState() ([]byte, error) {
	return json.Marshal(modelState{
		Kind:      m.kind,
		InputSize: m.inputSize,
		Hidden:    m.hidden,
		Classes:   m.classes,
		Seed:      m.seed,
		Params:    m.head.params,
	})
}

// UnmarshalState restores a checkpoint. The checkpoint must match the model's
// architecture and dimensions. The optimizer restarts from zero moments.
func (m *Model) UnmarshalState(b []byte) error {
	var st modelState
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("decode model state: %w", err)
	}
	if st.Kind != m.kind {
		return fmt.Errorf("checkpoint is %q, model is %q", st.Kind, m.kind)
	}
	if st.InputSize != m.inputSize || st.Hidden != m.hidden || st.Classes != m.classes {
		return fmt.Errorf("checkpoint dims %d/%d/%d do not match %d/%d/%d",
			st.InputSize, st.Hidden, st.Classes, m.inputSize, m.hidden, m.classes)
	}
	restored := &Model{kind: m.kind, inputSize: m.inputSize, hidden: m.hidden, classes: m.classes, seed: st.Seed, lr: m.lr}
	if err := restored.build(); err != nil {
		return err
	}
	if len(st.Params) != restored.head.size() {
		return fmt.Errorf("checkpoint has %d params, want %d", len(st.Params), restored.head.size())
	}
	copy(restored.head.params, st.Params)
	*m = *restored
	return nil
}

var _ service.Model = (*Model)(nil)
