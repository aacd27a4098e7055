package llm

import (
	"sync"
	"time"
)

// RateLimiter bounds how often the generation capability may be called
// per key within a fixed window. Many pipelines can await model calls
// concurrently; the limiter keeps upstream pressure bounded.
type RateLimiter struct {
	counters     map[string]*rateLimitEntry
	mu           sync.Mutex
	maxRequests  int
	windowPeriod time.Duration
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests per
// windowPeriod for each key.
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		counters:     make(map[string]*rateLimitEntry),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
	}
}

// CheckLimit records one request for key and reports whether the limit
// is exceeded, along with the current count and the window reset time.
func (r *RateLimiter) CheckLimit(key string) (bool, int, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.counters[key]

	if !ok || now.Sub(entry.windowStart) > r.windowPeriod {
		r.counters[key] = &rateLimitEntry{count: 1, windowStart: now}
		return false, 1, now.Add(r.windowPeriod)
	}

	entry.count++
	if entry.count > r.maxRequests {
		return true, entry.count, entry.windowStart.Add(r.windowPeriod)
	}
	return false, entry.count, entry.windowStart.Add(r.windowPeriod)
}
