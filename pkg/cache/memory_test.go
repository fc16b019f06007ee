package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := mc.Set(ctx, "window:BTCUSDT:short", 40, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got int
	if err := mc.Get(ctx, "window:BTCUSDT:short", &got); err != nil || got != 40 {
		t.Fatalf("get = %d, %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if err := mc.Get(ctx, "window:BTCUSDT:short", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(func() time.Time { return now }))
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, 0)
	now = now.Add(time.Second)
	_ = mc.Set(ctx, "b", 2, 0)
	now = now.Add(time.Second)
	var v int
	_ = mc.Get(ctx, "a", &v)
	now = now.Add(time.Second)
	_ = mc.Set(ctx, "c", 3, 0)

	if err := mc.Get(ctx, "b", &v); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted")
	}
	if err := mc.Get(ctx, "a", &v); err != nil || v != 1 {
		t.Fatalf("a should survive, got %d %v", v, err)
	}
}

func TestMemoryCacheLock(t *testing.T) {
	mc := NewMemoryCache()
	ctx := context.Background()

	ok, _ := mc.TryLock(ctx, "train:all", time.Minute)
	if !ok {
		t.Fatalf("first lock should succeed")
	}
	ok, _ = mc.TryLock(ctx, "train:all", time.Minute)
	if ok {
		t.Fatalf("second lock should fail")
	}
	_ = mc.Unlock(ctx, "train:all")
	ok, _ = mc.TryLock(ctx, "train:all", time.Minute)
	if !ok {
		t.Fatalf("lock after unlock should succeed")
	}
}
