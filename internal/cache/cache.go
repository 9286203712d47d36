package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BitcoinAdvisor/internal/model"
)

// SeriesCache stores raw observations per (symbol, period). Implementations
// must be safe for concurrent use.
type SeriesCache interface {
	Get(ctx context.Context, symbol string, period model.Period) ([]model.Observation, bool, error)
	Set(ctx context.Context, symbol string, period model.Period, obs []model.Observation) error
	Name() string
}

// Key builds the cache key for a series.
func Key(symbol string, period model.Period) string {
	return fmt.Sprintf("series:%s:%s", symbol, period)
}

type memoryEntry struct {
	obs     []model.Observation
	expires time.Time
}

// MemoryCache is an in-process TTL map used when Redis is disabled or unreachable.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Name() string { return "memory" }

func (c *MemoryCache) Get(_ context.Context, symbol string, period model.Period) ([]model.Observation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := Key(symbol, period)
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	out := make([]model.Observation, len(e.obs))
	copy(out, e.obs)
	return out, true, nil
}

func (c *MemoryCache) Set(_ context.Context, symbol string, period model.Period, obs []model.Observation) error {
	stored := make([]model.Observation, len(obs))
	copy(stored, obs)
	c.mu.Lock()
	c.entries[Key(symbol, period)] = memoryEntry{obs: stored, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
