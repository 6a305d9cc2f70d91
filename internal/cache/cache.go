package cache

import (
	"sync"
	"time"
)

// Cache keeps the value computed for the most recent key, with a TTL. It suits
// views keyed by a version number, such as a board revision, where only the
// latest one is worth keeping.
type Cache[K comparable, V any] struct {
	mu        sync.RWMutex
	key       K
	value     V
	expiresAt time.Time // zero means no expiration
	filled    bool
}

// New returns an empty Cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{}
}

// now is a small indirection to allow test stubbing.
var now = time.Now

func (c *Cache[K, V]) lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.filled || c.key != key || (!c.expiresAt.IsZero() && now().After(c.expiresAt)) {
		var zero V
		return zero, false
	}
	return c.value, true
}

// Compute returns the value cached for key, or builds it with fn and stores
// it in place of whatever was cached before. If ttl <= 0 the value does not
// expire until another key is computed.
func (c *Cache[K, V]) Compute(key K, ttl time.Duration, fn func() V) V {
	if v, ok := c.lookup(key); ok {
		return v
	}

	v := fn()
	var exp time.Time
	if ttl > 0 {
		exp = now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.key, c.value, c.expiresAt, c.filled = key, v, exp, true
	return v
}
