// Package failures exposes the fingerprints of past failure cases.
package failures

import (
	"context"

	"FinTrain/internal/domain/repository"
	applogger "FinTrain/pkg/logger"
)

// DefaultMinCount is the pattern-log count at which a failure is chronic.
const DefaultMinCount = 5

// Set is a set of fingerprints.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(fp string) bool {
	_, ok := s[fp]
	return ok
}

// Memory reads the failure store. Store errors degrade to an empty set.
// It holds no state of its own and is safe for concurrent use.
type Memory struct {
	store repository.FailureStore
	l     *applogger.Logger
}

// NewMemory creates a failure memory over store. A nil store yields empty sets.
func NewMemory(store repository.FailureStore, l *applogger.Logger) *Memory {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Memory{store: store, l: l}
}

// KnownFailureFingerprints returns fingerprints recorded as past failures.
func (m *Memory) KnownFailureFingerprints(ctx context.Context) Set {
	out := Set{}
	if m.store == nil {
		return out
	}
	fps, err := m.store.KnownFailures(ctx)
	if err != nil {
		m.l.Warn("known failures unavailable", applogger.Error(err))
		return out
	}
	for _, fp := range fps {
		if fp != "" {
			out[fp] = struct{}{}
		}
	}
	return out
}

// FrequentFailureFingerprints returns fingerprints whose pattern-log count is
// at least minCount. minCount <= 0 uses DefaultMinCount.
func (m *Memory) FrequentFailureFingerprints(ctx context.Context, minCount int) Set {
	if minCount <= 0 {
		minCount = DefaultMinCount
	}
	out := Set{}
	if m.store == nil {
		return out
	}
	counts, err := m.store.PatternCounts(ctx)
	if err != nil {
		m.l.Warn("failure pattern log unavailable", applogger.Error(err))
		return out
	}
	for fp, n := range counts {
		if n >= minCount {
			out[fp] = struct{}{}
		}
	}
	return out
}
