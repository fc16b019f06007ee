package di

import (
	"context"
	"testing"
	"time"

	"FinTrain/internal/services/window"
	"FinTrain/pkg/cache"
	"FinTrain/pkg/config"
)

func TestWindowCacheSelection(t *testing.T) {
	shared := cache.NewMemoryCache()

	cfg := &config.Config{}
	cfg.Window.Cache = "redis"
	if got := windowCache(cfg, shared); got != cache.Service(shared) {
		t.Fatal("redis mode should use the shared cache")
	}

	for _, mode := range []string{"memory", ""} {
		cfg.Window.Cache = mode
		got := windowCache(cfg, shared)
		if got == cache.Service(shared) {
			t.Fatalf("mode %q should build a process-local cache", mode)
		}
		if _, ok := got.(*cache.MemoryCache); !ok {
			t.Fatalf("mode %q: got %T", mode, got)
		}
	}
}

func TestProvideWindowSearcher(t *testing.T) {
	cfg := &config.Config{}
	s := ProvideWindowSearcher(cfg, cache.NewMemoryCache(), nil)
	if _, ok := s.(*window.StaticSearcher); !ok {
		t.Fatalf("no service url should give the static searcher, got %T", s)
	}
	if w, err := s.FindBestWindow(context.Background(), "BTCUSDT", "short"); err != nil || w <= 0 {
		t.Fatalf("static window = %d, %v", w, err)
	}

	cfg.Window.ServiceURL = "http://optimizer.local"
	cfg.Window.Timeout = time.Second
	if _, ok := ProvideWindowSearcher(cfg, cache.NewMemoryCache(), nil).(*window.HTTPSearcher); !ok {
		t.Fatal("service url should give the HTTP searcher")
	}
}

func TestProvideTrainingConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Training.Architectures = []string{"lstm"}
	cfg.Training.NumClasses = 16
	cfg.Training.CorrectivePasses = 6
	cfg.Training.PrimaryEpochs = 20
	cfg.Training.OverfitLabelDiversityLimit = 2

	tc := ProvideTrainingConfig(cfg)
	if tc.NumClasses != 16 || tc.CorrectivePasses != 6 || tc.PrimaryEpochs != 20 || tc.OverfitLabelDiversityLimit != 2 {
		t.Fatalf("training config not mapped: %+v", tc)
	}
	if len(tc.Architectures) != 1 || tc.Architectures[0] != "lstm" {
		t.Fatalf("architectures = %v", tc.Architectures)
	}
}
