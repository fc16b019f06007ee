package importance

import (
	"context"
	"testing"

	"FinTrain/internal/domain/models"
)

// firstColumnModel predicts class 1 when column 0 of the last row is positive.
type firstColumnModel struct{}

func (firstColumnModel) Kind() string   { return "fake" }
func (firstColumnModel) InputSize() int { return 2 }
func (firstColumnModel) Logits(w models.FeatureWindow) []float64 {
	v := w[len(w)-1][0]
	return []float64{-5 * v, 5 * v}
}
func (firstColumnModel) Backward([]models.LabeledSample) (float64, func()) { return 0, func() {} }
func (firstColumnModel) MarshalState() ([]byte, error)                   { return nil, nil }
func (firstColumnModel) UnmarshalState([]byte) error                     { return nil }

func TestPermutationRanksInformativeColumn(t *testing.T) {
	var val []models.LabeledSample
	for i := 0; i < 20; i++ {
		x := -1.0
		label := 0
		if i%2 == 0 {
			x, label = 1, 1
		}
		val = append(val, models.LabeledSample{
			Window: models.FeatureWindow{{x, float64(i)}, {x, float64(i)}},
			Label:  label,
		})
	}

	imps, err := NewPermutation(1, 3).Compute(context.Background(), firstColumnModel{}, val, []string{"signal", "noise"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(imps) != 2 {
		t.Fatalf("expected 2 importances, got %d", len(imps))
	}
	if imps[0].Feature != "signal" || imps[0].Importance <= 0 {
		t.Fatalf("signal column should rank first with positive score, got %+v", imps)
	}
	if imps[1].Importance != 0 {
		t.Fatalf("unused column should score 0, got %v", imps[1].Importance)
	}
}

func TestPermutationRejectsBadInput(t *testing.T) {
	p := NewPermutation(1, 1)
	if _, err := p.Compute(context.Background(), firstColumnModel{}, nil, []string{"a"}); err == nil {
		t.Fatalf("expected error for empty validation set")
	}
	val := []models.LabeledSample{{Window: models.FeatureWindow{{1, 2}}, Label: 0}}
	if _, err := p.Compute(context.Background(), firstColumnModel{}, val, []string{"a"}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestPermutationHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	val := []models.LabeledSample{{Window: models.FeatureWindow{{1, 2}}, Label: 1}}
	if _, err := NewPermutation(1, 1).Compute(ctx, firstColumnModel{}, val, []string{"a", "b"}); err == nil {
		t.Fatalf("expected context error")
	}
}
