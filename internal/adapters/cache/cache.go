// Package cache provides the TTL key-value capability injected into the
// data-fetching adapters, so callers can be tested with a fake.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/creatorscore/engine/pkg/metrics"
)

// Cache is a TTL-bound key-value store. Absence is a normal outcome, not
// an error.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Invalidate(key string)
}

// TTLCache implements Cache on an expirable LRU.
type TTLCache struct {
	name string
	lru  *expirable.LRU[string, any]
}

// Option applies a configuration option to the TTLCache.
type Option func(*ttlConfig)

type ttlConfig struct {
	name string
	size int
	ttl  time.Duration
}

// WithName labels the cache in metrics.
func WithName(name string) Option {
	return func(c *ttlConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithSize bounds the number of cached entries.
func WithSize(size int) Option {
	return func(c *ttlConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *ttlConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewTTLCache creates a TTL cache with default configuration.
func NewTTLCache(opts ...Option) *TTLCache {
	cfg := &ttlConfig{
		name: "default",
		size: 1024,
		ttl:  10 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &TTLCache{
		name: cfg.name,
		lru:  expirable.NewLRU[string, any](cfg.size, nil, cfg.ttl),
	}
}

// Get returns the cached value for key, if present and unexpired.
func (c *TTLCache) Get(key string) (any, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		metrics.RecordCacheHit(c.name)
	} else {
		metrics.RecordCacheMiss(c.name)
	}
	return v, ok
}

// Set stores value under key for the cache's TTL.
func (c *TTLCache) Set(key string, value any) {
	c.lru.Add(key, value)
}

// Invalidate drops key immediately.
func (c *TTLCache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Nop is a Cache that stores nothing; useful when caching is disabled.
type Nop struct{}

func (Nop) Get(string) (any, bool) { return nil, false }
func (Nop) Set(string, any)        {}
func (Nop) Invalidate(string)      {}
