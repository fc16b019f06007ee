// Package window resolves the sequence length used for a training unit.
package window

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinTrain/internal/domain/repository"
	"FinTrain/internal/domain/service"
	"FinTrain/pkg/cache"
	xhttp "FinTrain/pkg/http"
	applogger "FinTrain/pkg/logger"
)

// HTTPSearcher asks the window optimizer service and caches its answers.
type HTTPSearcher struct {
	baseURL  string
	client   *xhttp.Client
	cache    cache.Service
	cacheTTL time.Duration
	l        *applogger.Logger
}

// Option configures HTTPSearcher.
type Option func(*HTTPSearcher)

// WithCache caches resolved windows for ttl.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(s *HTTPSearcher) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(s *HTTPSearcher) {
		if l != nil {
			s.l = l
		}
	}
}

// NewHTTPSearcher builds a searcher for the optimizer at baseURL.
func NewHTTPSearcher(baseURL string, timeout time.Duration, attempts int, opts ...Option) *HTTPSearcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &HTTPSearcher{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithRetry(attempts, 50*time.Millisecond)),
		l:       applogger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchRequest struct {
	Symbol  string `json:"symbol"`
	Horizon string `json:"horizon"`
}

type searchResponse struct {
	Window int `json:"window"`
}

// FindBestWindow returns a positive window length or an error.
func (s *HTTPSearcher) FindBestWindow(ctx context.Context, symbol, horizon string) (int, error) {
	if s.baseURL == "" {
		return 0, fmt.Errorf("window service url not configured")
	}
	key := cache.GenerateKeyWithParams("window", symbol, horizon)

	if s.cache != nil {
		var cached int
		err := s.cache.Get(ctx, key, &cached)
		if err == nil && cached > 0 {
			return cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			s.l.Warn("window cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	var resp searchResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: "POST",
		URL:    s.baseURL + "/window/search",
		Body:   searchRequest{Symbol: symbol, Horizon: horizon},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("window search %s/%s: %w", symbol, horizon, err)
	}
	if resp.Window <= 0 {
		return 0, fmt.Errorf("window search %s/%s: non-positive window %d", symbol, horizon, resp.Window)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp.Window, s.cacheTTL); err != nil {
			s.l.Warn("window cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return resp.Window, nil
}

// StaticSearcher returns a fixed window per horizon. Used when no optimizer is deployed.
type StaticSearcher struct {
	windows map[string]int
}

// NewStaticSearcher returns a searcher with the given per-horizon windows.
// Nil uses DefaultWindows.
func NewStaticSearcher(windows map[string]int) *StaticSearcher {
	if windows == nil {
		windows = DefaultWindows
	}
	return &StaticSearcher{windows: windows}
}

// DefaultWindows per horizon.
var DefaultWindows = map[string]int{
	repository.HorizonShort:  20,
	repository.HorizonMedium: 30,
	repository.HorizonLong:   40,
}

// FindBestWindow returns the configured window or an error for unknown horizons.
func (s *StaticSearcher) FindBestWindow(_ context.Context, _ string, horizon string) (int, error) {
	w, ok := s.windows[horizon]
	if !ok || w <= 0 {
		return 0, fmt.Errorf("no window configured for horizon %q", horizon)
	}
	return w, nil
}

var (
	_ service.WindowSearcher = (*HTTPSearcher)(nil)
	_ service.WindowSearcher = (*StaticSearcher)(nil)
)
