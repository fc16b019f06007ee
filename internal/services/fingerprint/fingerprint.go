// Package fingerprint maps the most recent feature vector of a window to a
// stable content hash used for deduplication and failure exclusion.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"FinTrain/internal/domain/models"
)

// Invalid is returned for windows that are empty or not a proper matrix.
const Invalid = "invalid"

// Fingerprint hashes the last row of w rounded to 2 decimal places.
func Fingerprint(w models.FeatureWindow) string {
	if _, _, ok := w.Shape(); !ok {
		return Invalid
	}
	last := w[len(w)-1]
	parts := make([]string, len(last))
	for i, v := range last {
		parts[i] = round2(v)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}

func round2(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	// half away from zero on the shortest decimal form of v
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}
