package window

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"FinTrain/pkg/cache"
)

func TestHTTPSearcherCachesWindow(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req searchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Symbol != "BTCUSDT" || req.Horizon != "short" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(searchResponse{Window: 24})
	}))
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL, time.Second, 1, WithCache(cache.NewMemoryCache(), time.Hour))
	for i := 0; i < 2; i++ {
		w, err := s.FindBestWindow(context.Background(), "BTCUSDT", "short")
		if err != nil || w != 24 {
			t.Fatalf("window = %d, %v", w, err)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}

func TestHTTPSearcherRejectsNonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchResponse{Window: 0})
	}))
	defer srv.Close()

	s := NewHTTPSearcher(srv.URL, time.Second, 1)
	if _, err := s.FindBestWindow(context.Background(), "ETHUSDT", "long"); err == nil {
		t.Fatalf("expected error for zero window")
	}
	if _, err := NewHTTPSearcher("", time.Second, 1).FindBestWindow(context.Background(), "X", "short"); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestStaticSearcher(t *testing.T) {
	s := NewStaticSearcher(nil)
	if w, err := s.FindBestWindow(context.Background(), "X", "medium"); err != nil || w != 30 {
		t.Fatalf("medium = %d, %v", w, err)
	}
	if _, err := s.FindBestWindow(context.Background(), "X", "weekly"); err == nil {
		t.Fatalf("expected error for unknown horizon")
	}
}
