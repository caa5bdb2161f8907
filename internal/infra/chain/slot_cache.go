package chain

import (
	"context"
	"sync"
	"time"
)

// SlotCache serves GetCurrentSlot from memory for ttl. Solana produces a
// slot roughly every 400ms, so many widgets polling the head at once can
// share one upstream call. All other reads pass straight through.
type SlotCache struct {
	Reader
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	cached   uint64
	cachedAt time.Time
}

// NewSlotCache wraps r with a slot cache of the given TTL.
func NewSlotCache(r Reader, ttl time.Duration) *SlotCache {
	return &SlotCache{Reader: r, ttl: ttl, now: time.Now}
}

// GetCurrentSlot returns the cached slot if within TTL, otherwise fetches fresh.
func (c *SlotCache) GetCurrentSlot(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	if c.cached > 0 && c.now().Sub(c.cachedAt) < c.ttl {
		slot := c.cached
		c.mu.RUnlock()
		return slot, nil
	}
	c.mu.RUnlock()

	slot, err := c.Reader.GetCurrentSlot(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cached = slot
	c.cachedAt = c.now()
	c.mu.Unlock()

	return slot, nil
}

// Invalidate forces the next call to fetch fresh data.
func (c *SlotCache) Invalidate() {
	c.mu.Lock()
	c.cachedAt = time.Time{}
	c.mu.Unlock()
}
