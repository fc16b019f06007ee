package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
training:
  symbols: [BTCUSDT]
clickhouse:
  host: ch
kafka:
  brokers: [k1:9092]
`

func TestParseFillsDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tr := c.Training
	if got := len(tr.Horizons); got != 3 {
		t.Fatalf("horizons = %v", tr.Horizons)
	}
	if len(tr.Architectures) != 3 || tr.Architectures[0] != "lstm" {
		t.Fatalf("architectures = %v", tr.Architectures)
	}
	if tr.NumClasses != 16 || tr.CorrectivePasses != 6 || tr.PrimaryEpochs != 20 {
		t.Fatalf("training defaults not applied: %+v", tr)
	}
	if tr.CorrectiveBatchSize != 16 || tr.PrimaryBatchSize != 32 || tr.ValidationFraction != 0.2 {
		t.Fatalf("batch defaults not applied: %+v", tr)
	}
	if c.Artifacts.Timezone != "Asia/Seoul" || c.Artifacts.FallbackOffsetHours != 9 {
		t.Fatalf("artifact defaults not applied: %+v", c.Artifacts)
	}
	if c.Window.Cache != "memory" || c.Window.CacheSize != 1024 {
		t.Fatalf("window cache defaults not applied: %q/%d", c.Window.Cache, c.Window.CacheSize)
	}
	if c.Server.Port != 8080 || c.Cooldown.All != time.Hour {
		t.Fatalf("server/cooldown defaults not applied")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing symbols", "environment: test\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"missing brokers", "environment: test\ntraining: {symbols: [A]}\nclickhouse: {host: ch}\n"},
		{"unknown horizon", "environment: test\ntraining: {symbols: [A], horizons: [weekly]}\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"unknown architecture", "environment: test\ntraining: {symbols: [A], architectures: [gru]}\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"classes overflow byte", "environment: test\ntraining: {symbols: [A], num_classes: 300}\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"bad validation fraction", "environment: test\ntraining: {symbols: [A], validation_fraction: 1.5}\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"unknown window cache", "environment: test\ntraining: {symbols: [A]}\nwindow: {cache: disk}\nclickhouse: {host: ch}\nkafka: {brokers: [k]}\n"},
		{"malformed yaml", "environment: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"SYMBOLS":          "ETHUSDT, SOLUSDT,",
		"HORIZONS":         "short",
		"TRAINING_WORKERS": "4",
		"KAFKA_BROKERS":    "a:1,b:2",
		"MODELS_DIR":       "/data/models",
		"PORT":             "not-a-number",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	if len(c.Training.Symbols) != 2 || c.Training.Symbols[1] != "SOLUSDT" {
		t.Fatalf("symbols = %v", c.Training.Symbols)
	}
	if len(c.Training.Horizons) != 1 || c.Training.Workers != 4 {
		t.Fatalf("horizons = %v workers = %d", c.Training.Horizons, c.Training.Workers)
	}
	if len(c.Kafka.Brokers) != 2 || c.Artifacts.ModelsDir != "/data/models" {
		t.Fatalf("kafka/artifacts overrides not applied")
	}
	if c.Server.Port != 8080 {
		t.Fatalf("invalid PORT should keep the configured port, got %d", c.Server.Port)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ClickHouse.Host != "ch" || c.ClickHouse.HistoryLimit != 1500 {
		t.Fatalf("unexpected clickhouse section %+v", c.ClickHouse)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
