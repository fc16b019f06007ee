package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
	topics  []string
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorFoldsDuplicates(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "training.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"symbol": "BTCUSDT"}
	for i := 0; i < 3; i++ {
		c.AddLog("error", "unit failed", fields, "usecase/orchestrator.go:10")
	}
	c.AddLog("error", "other failure", nil, "usecase/batch.go:20")
	c.Close()

	if len(pub.batches) != 1 {
		t.Fatalf("expected one flushed batch, got %d", len(pub.batches))
	}
	if pub.topics[0] != "training.logs" {
		t.Fatalf("unexpected topic %q", pub.topics[0])
	}
	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
	}
	if counts["unit failed"] != 3 || counts["other failure"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Topic:          "t",
		Publisher:      pub,
	})
	c.AddLog("error", "a", nil, "x")
	c.AddLog("error", "b", nil, "x")
	c.Close()

	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected a single batch of 2, got %v", pub.batches)
	}
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Publisher: pub})
	l.Error("boom", Error(errors.New("x")), String("symbol", "ETHUSDT"))
	l.Warn("ignored")
	l.RemoveCollector()

	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one collected error, got %v", pub.batches)
	}
	if got := pub.batches[0][0].Fields["symbol"]; got != "ETHUSDT" {
		t.Fatalf("field not carried: %v", got)
	}
}
