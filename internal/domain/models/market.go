package models

import "time"

// Candle represents an OHLCV record for feature engineering and training.
type Candle struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FeatureRow is one engineered row. Close is carried for labelling and is not a feature.
type FeatureRow struct {
	Time   time.Time
	Close  float64
	Values []float64
}

// FeatureTable is the output of feature engineering.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureRow
}

// Width is the number of feature columns.
func (t FeatureTable) Width() int { return len(t.Columns) }
