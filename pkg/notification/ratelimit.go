package notification

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimit is the number of commands a user may issue per window.
	DefaultRateLimit = 5
	// DefaultRateWindow is the fixed-window length.
	DefaultRateWindow = time.Minute

	// purgeEvery bounds how often expired entries are swept.
	purgeEvery = 64
)

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is a fixed-window per-user limiter. Entries are created on
// first request, rolled over when the window expires and purged lazily.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[int64]*rateLimitEntry
	calls   int
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[int64]*rateLimitEntry),
		now:     time.Now,
	}
}

// Allow reports whether the user may issue one more command in the current
// window and counts it when allowed.
func (r *RateLimiter) Allow(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	r.calls++
	if r.calls%purgeEvery == 0 {
		r.purge(now)
	}

	entry, ok := r.entries[userID]
	if !ok || now.After(entry.resetTime) {
		r.entries[userID] = &rateLimitEntry{count: 1, resetTime: now.Add(r.window)}
		return true
	}

	if entry.count >= r.limit {
		return false
	}

	entry.count++
	return true
}

func (r *RateLimiter) purge(now time.Time) {
	for userID, entry := range r.entries {
		if now.After(entry.resetTime) {
			delete(r.entries, userID)
		}
	}
}
