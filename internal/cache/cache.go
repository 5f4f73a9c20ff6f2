// Package cache memoizes read results against the roster data version.
//
// Entries are keyed by operation, data version and a hash of the request
// parameters. Observing a newer version purges everything, so a result is
// never served across a roster change. The cache is advisory: callers that
// skip it get the same answers, only slower.
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mmynk/toastmixer/internal/metrics"
)

// Cache is a bounded, expiring, version-aware result cache.
type Cache struct {
	lru *expirable.LRU[string, any]

	mu      sync.Mutex
	version int64
}

// New creates a cache holding at most size entries, each living at most ttl.
// A zero ttl disables expiry.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Observe records the current data version. A version newer than the last
// one seen purges every entry.
func (c *Cache) Observe(version int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if version <= c.version {
		return
	}
	if c.version != 0 || c.lru.Len() > 0 {
		c.lru.Purge()
		metrics.CachePurges.Inc()
	}
	c.version = version
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// GenerateKey builds a compact key from the operation, data version and the
// JSON form of params.
func GenerateKey(op string, version int64, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%d:%v", op, version, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%d:%x", op, version, hash[:16])
}

// Remember returns the cached result for (op, version, params), computing and
// storing it with fn on a miss. Errors are never cached.
func Remember[T any](c *Cache, op string, version int64, params any, fn func() (T, error)) (T, error) {
	if c == nil {
		return fn()
	}

	c.Observe(version)
	key := GenerateKey(op, version, params)

	if v, ok := c.lru.Get(key); ok {
		if typed, ok := v.(T); ok {
			metrics.CacheHits.WithLabelValues(op).Inc()
			return typed, nil
		}
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()

	result, err := fn()
	if err != nil {
		return result, err
	}
	c.lru.Add(key, result)
	return result, nil
}
