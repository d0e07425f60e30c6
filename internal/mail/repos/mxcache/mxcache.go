package mxcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores boolean MX lookup results keyed by normalized domain.
// Entries have no TTL; they live until Purge or LRU capacity eviction.
type Cache interface {
	Get(domain string) (hasMX bool, ok bool)
	Put(domain string, hasMX bool)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// resultCache is an LRU-backed implementation of Cache.
// It tracks basic metrics: hits, misses, and evictions.
type resultCache struct {
	lru       *lru.Cache[string, bool]
	hits      uint64
	misses    uint64
	evictions uint64
}

// disabledCache is a no-op Cache used when size <= 0.
type disabledCache struct{}

// newLRU is swappable in tests to exercise the constructor error path.
var newLRU = func(size int, onEvict func(string, bool)) (*lru.Cache[string, bool], error) {
	return lru.NewWithEvict(size, onEvict)
}

// New creates a Cache with the given capacity. If size <= 0, a disabled
// no-op cache is returned that always misses and tracks no metrics.
func New(size int) (Cache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	var rc resultCache
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := newLRU(size, func(string, bool) {
		atomic.AddUint64(&rc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return &rc, nil
}

// Get looks up a cached result. When found, increments hits; otherwise misses.
func (c *resultCache) Get(domain string) (bool, bool) {
	if val, ok := c.lru.Get(domain); ok {
		atomic.AddUint64(&c.hits, 1)
		return val, true
	}
	atomic.AddUint64(&c.misses, 1)
	return false, false
}

// Put stores a lookup result. Writing the same domain twice is harmless.
func (c *resultCache) Put(domain string, hasMX bool) {
	c.lru.Add(domain, hasMX)
}

// Len returns the number of cached domains.
func (c *resultCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *resultCache) Purge() { c.lru.Purge() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *resultCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}

// disabledCache implementation

func (d *disabledCache) Get(string) (bool, bool) { return false, false }

func (d *disabledCache) Put(string, bool) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() (uint64, uint64, uint64) { return 0, 0, 0 }

var _ Cache = (*resultCache)(nil)
var _ Cache = (*disabledCache)(nil)
