package lookup

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"piper/internal/value"
)

// CachedSource wraps a Source with a bounded LRU cache and single-flight
// request coalescing, so that a burst of concurrent requests keyed on the
// same lookup value only ever reaches the backend once.
type CachedSource struct {
	inner Source
	ttl   time.Duration
	cache *lru.Cache[string, cacheEntry]
	group singleflight.Group
}

type cacheEntry struct {
	rows    []value.Value
	expires time.Time
}

// DefaultCacheSize is the per-source bounded-LRU capacity used when a
// pipeline's lookup source configuration does not override it.
const DefaultCacheSize = 1024

// NewCachedSource wraps inner with a cache of the given size and per-entry
// TTL. size<=0 falls back to DefaultCacheSize; ttl<=0 disables expiry.
func NewCachedSource(inner Source, size int, ttl time.Duration) *CachedSource {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, _ := lru.New[string, cacheEntry](size)
	return &CachedSource{inner: inner, ttl: ttl, cache: c}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	k := value.HashKey(key)
	if e, ok := c.cache.Get(k); ok {
		if c.ttl <= 0 || time.Now().Before(e.expires) {
			return e.rows, nil
		}
		c.cache.Remove(k)
	}

	res, err, _ := c.group.Do(k, func() (any, error) {
		rows, err := c.inner.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		entry := cacheEntry{rows: rows, expires: time.Now().Add(c.ttl)}
		c.cache.Add(k, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(cacheEntry).rows, nil
}
