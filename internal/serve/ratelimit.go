package serve

import (
	"sync"
	"time"
)

// rateLimiter is a per-key sliding window counter. Stale keys are pruned
// opportunistically on each call so the map doesn't grow with client churn.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	seen  map[string][]time.Time
	sweep time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		seen:   make(map[string][]time.Time),
		sweep:  time.Now(),
	}
}

// Allow reports whether key may make another request now, recording it if so.
func (rl *rateLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.sweep) > rl.window {
		rl.pruneLocked(cutoff)
		rl.sweep = now
	}

	times := rl.seen[key]
	live := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	if len(live) >= rl.limit {
		rl.seen[key] = live
		return false
	}
	rl.seen[key] = append(live, now)
	return true
}

func (rl *rateLimiter) pruneLocked(cutoff time.Time) {
	for key, times := range rl.seen {
		live := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				live = append(live, t)
			}
		}
		if len(live) == 0 {
			delete(rl.seen, key)
		} else {
			rl.seen[key] = live
		}
	}
}
