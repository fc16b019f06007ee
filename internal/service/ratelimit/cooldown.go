package ratelimit

import (
	"sync"
	"time"
)

// Cooldown admits one trigger per key per period.
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// New creates a cooldown gate. A nil clock uses time.Now.
func New(now func() time.Time) *Cooldown {
	if now == nil {
		now = time.Now
	}
	return &Cooldown{last: make(map[string]time.Time), now: now}
}

// Allow records a trigger for key and returns true when the previous one is
// at least period old. Otherwise it returns false and the remaining wait.
func (c *Cooldown) Allow(key string, period time.Duration) (bool, time.Duration) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.last[key]; ok {
		if wait := period - now.Sub(prev); wait > 0 {
			return false, wait
		}
	}
	c.last[key] = now
	return true, 0
}

// Reset forgets key, for example after the triggered work could not be queued.
func (c *Cooldown) Reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.last, key)
}
