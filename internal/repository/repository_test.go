package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"FinTrain/internal/domain/models"
)

func TestFileArtifactStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileArtifactStore(filepath.Join(t.TempDir(), "models"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key := models.TrainingUnit{Symbol: "BTCUSDT", Horizon: "short"}.Key(models.ArchLSTM)

	if _, found, err := s.Load(ctx, key); err != nil || found {
		t.Fatalf("expected missing weights, got found=%v err=%v", found, err)
	}
	if err := s.Save(ctx, key, []byte("state")); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, found, err := s.Load(ctx, key)
	if err != nil || !found || string(b) != "state" {
		t.Fatalf("load: %q %v %v", b, found, err)
	}

	meta := models.ModelMeta{Symbol: "BTCUSDT", Strategy: "short", Model: "lstm", Accuracy: 0.5, F1Score: 0.25, Loss: 1.5, Timestamp: "2024-01-01 09:00:00"}
	if err := s.SaveMeta(ctx, key, meta); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	got, found, err := s.LoadMeta(ctx, key)
	if err != nil || !found || got != meta {
		t.Fatalf("meta round trip: %+v %v %v", got, found, err)
	}

	entries, _ := os.ReadDir(s.dir)
	if len(entries) != 2 {
		t.Fatalf("expected weights and meta files only, got %d entries", len(entries))
	}
}

func TestFileArtifactStoreRejectsPathKeys(t *testing.T) {
	s, _ := NewFileArtifactStore(t.TempDir())
	for _, key := range []string{"", "../x", "a/b"} {
		if err := s.Save(context.Background(), key, nil); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestDecodeSample(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"match", `[[1,2],[3,4],[5,6]]`, true},
		{"wrong window", `[[1,2],[3,4]]`, false},
		{"wrong width", `[[1],[2],[3]]`, false},
		{"ragged", `[[1,2],[3],[5,6]]`, false},
		{"garbage", `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := decodeSample(tt.raw, 4, 2, 3)
			if ok != tt.ok {
				t.Fatalf("ok=%v, want %v", ok, tt.ok)
			}
			if ok && s.Label != 4 {
				t.Fatalf("label not carried")
			}
		})
	}
}

func TestParsePatternCounts(t *testing.T) {
	got := parsePatternCounts(map[string]string{"a": "5", "b": "x", "c": "0"})
	if len(got) != 2 || got["a"] != 5 || got["c"] != 0 {
		t.Fatalf("unexpected counts %v", got)
	}
}

func TestTableForHorizon(t *testing.T) {
	if tbl, err := tableForHorizon("long"); err != nil || tbl != "candles_1d" {
		t.Fatalf("long -> %q %v", tbl, err)
	}
	if _, err := tableForHorizon("weekly"); err == nil {
		t.Fatalf("unknown horizon accepted")
	}
}
