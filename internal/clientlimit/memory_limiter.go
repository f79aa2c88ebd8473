package clientlimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a sliding-window Limiter kept in process memory. It is the
// default when no Redis backend is configured; limits then apply per instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string][]time.Time)}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := keepRecent(m.buckets[key], windowStart)

	allowed := len(recent) < limit
	if allowed {
		recent = append(recent, now)
	}
	m.buckets[key] = recent

	remaining := limit - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// Cleanup removes buckets that have been inactive for more than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, requests := range m.buckets {
		if len(requests) == 0 || requests[len(requests)-1].Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}

func keepRecent(requests []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(requests) && requests[firstIdx].Before(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return requests
	}

	copy(requests, requests[firstIdx:])
	return requests[:len(requests)-firstIdx]
}
