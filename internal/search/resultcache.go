package search

import (
	"sync"
	"sync/atomic"
	"time"

	"ducktorrents/internal/cache"
	"ducktorrents/internal/metrics"
	"ducktorrents/internal/models"
)

// Entry is a cached query result.
type Entry struct {
	Rows     []models.Torrent
	Duration time.Duration
}

// Stats counts result cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
}

// ResultCache maps normalized query keys to prior results.
// The empty key holds the default view. Every Clear starts a new epoch;
// results computed under an older epoch are not stored.
type ResultCache struct {
	mu     sync.Mutex
	epoch  uint64
	store  cache.Cache[string, Entry]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResultCache creates a result cache holding at most capacity entries.
func NewResultCache(policy cache.Policy, capacity int) (*ResultCache, error) {
	store, err := cache.New[string, Entry](policy, capacity)
	if err != nil {
		return nil, err
	}
	return &ResultCache{store: store}, nil
}

func (c *ResultCache) Lookup(key string) (Entry, bool) {
	e, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
		metrics.ResultCacheHits.Inc()
	} else {
		c.misses.Add(1)
		metrics.ResultCacheMisses.Inc()
	}
	return e, ok
}

func (c *ResultCache) Insert(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Add(key, e)
}

// Epoch identifies the row-set the cached entries were computed from.
func (c *ResultCache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// InsertAt stores e only if no Clear happened since epoch was read.
func (c *ResultCache) InsertAt(epoch uint64, key string, e Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return false
	}
	c.store.Add(key, e)
	return true
}

func (c *ResultCache) Len() int { return c.store.Len() }

func (c *ResultCache) Cap() int { return c.store.Cap() }

// Clear drops every entry, typically after the row-set was re-ingested.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.store.Clear()
}

func (c *ResultCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
