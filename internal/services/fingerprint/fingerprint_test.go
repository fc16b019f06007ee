package fingerprint

import (
	"math"
	"testing"

	"FinTrain/internal/domain/models"
)

func TestFingerprintSentinel(t *testing.T) {
	cases := []struct {
		name string
		w    models.FeatureWindow
	}{
		{"nil", nil},
		{"empty", models.FeatureWindow{}},
		{"one dimensional", models.FeatureWindow{{}}},
		{"ragged", models.FeatureWindow{{1, 2}, {1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fingerprint(tc.w); got != Invalid {
				t.Fatalf("Fingerprint = %q, want %q", got, Invalid)
			}
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := models.FeatureWindow{{9, 9}, {0.5, -1.25}}
	b := models.FeatureWindow{{0, 0}, {0, 0}, {0.5, -1.25}}
	fa, fb := Fingerprint(a), Fingerprint(b)
	if fa != fb {
		t.Fatalf("same last row must hash equally: %s vs %s", fa, fb)
	}
	if len(fa) != 40 {
		t.Fatalf("expected sha1 hex digest, got %q", fa)
	}
	if Fingerprint(a) != fa {
		t.Fatalf("not deterministic")
	}
}

func TestFingerprintRoundingSensitivity(t *testing.T) {
	cases := []struct {
		name string
		x, y []float64
		same bool
	}{
		{"differs beyond 2 decimals", []float64{1.2341, 0.1}, []float64{1.2344, 0.1}, true},
		{"differs at third decimal under half", []float64{0.001}, []float64{0.004}, true},
		{"differs within 2 decimals", []float64{1.23, 0.1}, []float64{1.24, 0.1}, false},
		{"sign change", []float64{0.5}, []float64{-0.5}, false},
		{"trailing zero equivalence", []float64{2}, []float64{2.000001}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := Fingerprint(models.FeatureWindow{tc.x})
			fy := Fingerprint(models.FeatureWindow{tc.y})
			if (fx == fy) != tc.same {
				t.Fatalf("same=%v, got %s vs %s", tc.same, fx, fy)
			}
		})
	}
}

func TestFingerprintNonFinite(t *testing.T) {
	w := models.FeatureWindow{{math.NaN(), math.Inf(1)}}
	if got := Fingerprint(w); got == Invalid || got == "" {
		t.Fatalf("non-finite values still hash, got %q", got)
	}
	if Fingerprint(w) != Fingerprint(models.FeatureWindow{{math.NaN(), math.Inf(1)}}) {
		t.Fatalf("NaN rendering must be stable")
	}
}
