package features

import (
	"context"
	"math"

	"FinTrain/internal/domain/models"
	"FinTrain/internal/domain/service"
)

// Column names in the order they appear in FeatureRow.Values.
var Columns = []string{
	"log_return",
	"return_5",
	"range",
	"body",
	"volume_change",
	"volatility_10",
	"sma_ratio_20",
	"rsi_14",
}

const (
	volWindow = 10
	smaWindow = 20
	rsiWindow = 14
)

// Engineer computes the fixed feature set from candles.
type Engineer struct{}

// NewEngineer creates the feature engineer.
func NewEngineer() *Engineer { return &Engineer{} }

// ComputeFeatures returns one row per candle. Rows inside the warm-up period
// carry NaN and are dropped by the caller.
func (e *Engineer) ComputeFeatures(ctx context.Context, _ string, candles []models.Candle, _ string) (models.FeatureTable, error) {
	table := models.FeatureTable{Columns: Columns}
	if len(candles) == 0 {
		return table, nil
	}
	if err := ctx.Err(); err != nil {
		return table, err
	}

	logRet := make([]float64, len(candles))
	logRet[0] = math.NaN()
	copy(logRet[1:], ComputeLogReturns(candles))

	table.Rows = make([]models.FeatureRow, len(candles))
	for i, c := range candles {
		row := make([]float64, len(Columns))
		row[0] = logRet[i]
		row[1] = pctChange(candles, i, 5)
		row[2] = safeDiv(c.High-c.Low, c.Close)
		row[3] = safeDiv(c.Close-c.Open, c.Open)
		row[4] = volumeChange(candles, i)
		row[5] = rollingStd(logRet, i, volWindow)
		row[6] = smaRatio(candles, i, smaWindow)
		row[7] = rsi(candles, i, rsiWindow)
		table.Rows[i] = models.FeatureRow{Time: c.Time, Close: c.Close, Values: row}
	}
	return table, nil
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

func pctChange(candles []models.Candle, i, k int) float64 {
	if i < k {
		return math.NaN()
	}
	return safeDiv(candles[i].Close, candles[i-k].Close) - 1
}

func volumeChange(candles []models.Candle, i int) float64 {
	if i == 0 {
		return math.NaN()
	}
	prev := candles[i-1].Volume
	if prev <= 0 {
		return 0
	}
	return candles[i].Volume/prev - 1
}

// rollingStd is the sample standard deviation of xs[i-n+1..i].
func rollingStd(xs []float64, i, n int) float64 {
	if i < n {
		return math.NaN()
	}
	sum, sum2 := 0.0, 0.0
	for j := i - n + 1; j <= i; j++ {
		sum += xs[j]
		sum2 += xs[j] * xs[j]
	}
	fn := float64(n)
	mean := sum / fn
	variance := (sum2 - fn*mean*mean) / (fn - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func smaRatio(candles []models.Candle, i, n int) float64 {
	if i < n-1 {
		return math.NaN()
	}
	sum := 0.0
	for j := i - n + 1; j <= i; j++ {
		sum += candles[j].Close
	}
	return safeDiv(candles[i].Close, sum/float64(n)) - 1
}

// rsi is the simple-average RSI scaled to [0,1].
func rsi(candles []models.Candle, i, n int) float64 {
	if i < n {
		return math.NaN()
	}
	gain, loss := 0.0, 0.0
	for j := i - n + 1; j <= i; j++ {
		d := candles[j].Close - candles[j-1].Close
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if gain+loss == 0 {
		return 0.5
	}
	return gain / (gain + loss)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return a / b
}

var _ service.FeatureEngineer = (*Engineer)(nil)
