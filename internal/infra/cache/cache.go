// Package cache holds short-lived upstream responses.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a byte-value store with per-entry TTL. redis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type entry struct {
	val     []byte
	expires time.Time
}

// DefaultMaxEntries bounds a Memory cache built by NewMemory.
const DefaultMaxEntries = 10000

// Memory is an in-process Cache holding at most maxEntries keys. Expired
// entries are dropped on read and swept whenever a new key would exceed the
// bound; if the cache is still full the entry closest to expiry goes.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithLimit(DefaultMaxEntries)
}

// NewMemoryWithLimit builds a cache bounded to n keys.
func NewMemoryWithLimit(n int) *Memory {
	if n < 1 {
		n = 1
	}
	return &Memory{
		entries:    make(map[string]entry),
		maxEntries: n,
		now:        time.Now,
	}
}

// Len reports the number of stored keys, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

// Set stores val. A non-positive ttl never expires.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) evictLocked() {
	now := m.now()
	var victim string
	var victimExp time.Time
	for k, e := range m.entries {
		if e.expires.IsZero() {
			continue
		}
		if !now.Before(e.expires) {
			delete(m.entries, k)
			continue
		}
		if victim == "" || e.expires.Before(victimExp) {
			victim, victimExp = k, e.expires
		}
	}
	if len(m.entries) < m.maxEntries {
		return
	}
	if victim == "" {
		// only non-expiring keys left
		for k := range m.entries {
			victim = k
			break
		}
	}
	delete(m.entries, victim)
}
