package clickhouse

import "fmt"

// Tables used by the trainer.
const (
	TableWrongPredictions  = "wrong_predictions"
	TableTrainingLog       = "training_log"
	TableFeatureImportance = "feature_importance"
)

// CandleTables maps a horizon to its candle table.
var CandleTables = map[string]string{
	"short":  "candles_1h",
	"medium": "candles_4h",
	"long":   "candles_1d",
}

// Schema returns idempotent DDL for every table the trainer reads or writes.
func Schema(database string) []string {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
	}
	for _, table := range []string{"candles_1h", "candles_4h", "candles_1d"} {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	symbol LowCardinality(String),
	ts DateTime64(3, 'UTC'),
	open Float64,
	high Float64,
	low Float64,
	close Float64,
	volume Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts)`, database, table))
	}
	stmts = append(stmts,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	symbol LowCardinality(String),
	horizon LowCardinality(String),
	window UInt32,
	input_size UInt32,
	features String,
	label Int32,
	fingerprint String,
	created_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, horizon, created_at)`, database, TableWrongPredictions),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	run_id String,
	symbol LowCardinality(String),
	horizon LowCardinality(String),
	label String,
	accuracy Float64,
	f1 Float64,
	loss Float64,
	logged_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, horizon, logged_at)`, database, TableTrainingLog),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	symbol LowCardinality(String),
	horizon LowCardinality(String),
	model LowCardinality(String),
	feature String,
	importance Float64,
	computed_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (symbol, horizon, model, computed_at)`, database, TableFeatureImportance),
	)
	return stmts
}
