package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	domrepo "FinTrain/internal/domain/repository"
)

// RedisFailureStore keeps the failure-case set and the failure-pattern
// counts in Redis. Both are written by the serving side as well.
type RedisFailureStore struct {
	client      redis.Cmdable
	knownKey    string
	patternsKey string
}

func NewRedisFailureStore(client redis.Cmdable, prefix string) *RedisFailureStore {
	if prefix == "" {
		prefix = "fintrain"
	}
	return &RedisFailureStore{
		client:      client,
		knownKey:    prefix + ":failures:known",
		patternsKey: prefix + ":failures:patterns",
	}
}

func (s *RedisFailureStore) KnownFailures(ctx context.Context) ([]string, error) {
	fps, err := s.client.SMembers(ctx, s.knownKey).Result()
	if err != nil {
		return nil, fmt.Errorf("known failures: %w", err)
	}
	return fps, nil
}

func (s *RedisFailureStore) PatternCounts(ctx context.Context) (map[string]int, error) {
	raw, err := s.client.HGetAll(ctx, s.patternsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failure patterns: %w", err)
	}
	return parsePatternCounts(raw), nil
}

// RecordFailure bumps the pattern count of fp. The known set is curated by
// the serving side and is only read here.
func (s *RedisFailureStore) RecordFailure(ctx context.Context, fp string) error {
	if err := s.client.HIncrBy(ctx, s.patternsKey, fp, 1).Err(); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// parsePatternCounts drops entries whose count is not an integer.
func parsePatternCounts(raw map[string]string) map[string]int {
	out := make(map[string]int, len(raw))
	for fp, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		out[fp] = n
	}
	return out
}

var _ domrepo.FailureStore = (*RedisFailureStore)(nil)
