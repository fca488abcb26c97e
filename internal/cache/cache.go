package cache

import "fmt"

// Cache defines a minimal capacity-bounded key-value cache API.
// Entries never expire by time; they leave only through eviction or Clear.
// Implementations may or may not be goroutine-safe depending on configuration.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present.
	Get(key K) (V, bool)

	// Add stores the value, evicting one entry first when the cache is full.
	// It reports whether an entry was evicted.
	Add(key K, value V) bool

	// Len returns the number of items currently stored.
	Len() int

	// Cap returns the maximum number of items the cache holds.
	Cap() int

	// Clear removes all entries.
	Clear()
}

// Policy selects the eviction order of a bounded cache.
type Policy string

const (
	// PolicyFIFO evicts the oldest inserted entry; reads do not affect order.
	PolicyFIFO Policy = "fifo"
	// PolicyLRU evicts the least recently used entry (touch-on-read).
	PolicyLRU Policy = "lru"
)

// New constructs a bounded cache for the given policy.
func New[K comparable, V any](policy Policy, capacity int) (Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	switch policy {
	case PolicyFIFO, "":
		return NewFIFOCache[K, V](capacity, Options{ConcurrencySafe: true}), nil
	case PolicyLRU:
		return NewLRUCache[K, V](capacity)
	default:
		return nil, fmt.Errorf("unknown cache policy %q", policy)
	}
}
