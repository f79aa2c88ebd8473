package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
)

type entry struct {
	loc       *geocode.Location
	expiresAt time.Time
}

// MemoryStore is an in-process Store for single-binary deployments and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

// Get returns the cached location for key if it has not expired.
func (m *MemoryStore) Get(_ context.Context, key string) (*geocode.Location, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}

	return e.loc, true, nil
}

// Set stores loc under key for the provided TTL.
func (m *MemoryStore) Set(_ context.Context, key string, loc *geocode.Location, ttl time.Duration) error {
	if loc == nil {
		return nil
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	m.mu.Lock()
	m.entries[key] = entry{loc: loc, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()

	return nil
}

// Cleanup drops expired entries. Long-running processes call it periodically;
// Get also evicts lazily.
func (m *MemoryStore) Cleanup() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
