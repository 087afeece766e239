// Package cache is an in-memory expiring cache keyed by case-insensitive
// strings such as hex addresses.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DEFAULT_TTL     = 30 * time.Second
	cleanupInterval = time.Minute
)

type Cache[T any] struct {
	c   *gocache.Cache
	ttl time.Duration
}

// New returns a cache whose entries expire after ttl. A zero ttl disables
// the cache: Set is a no-op and Get never hits.
func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		c:   gocache.New(ttl, cleanupInterval),
		ttl: ttl,
	}
}

func (self *Cache[T]) Enabled() bool {
	return self.ttl > 0
}

func (self *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if !self.Enabled() {
		return zero, false
	}
	obj, found := self.c.Get(strings.ToLower(key))
	if !found {
		return zero, false
	}
	value, ok := obj.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

func (self *Cache[T]) Set(key string, value T) {
	if !self.Enabled() {
		return
	}
	self.c.Set(strings.ToLower(key), value, gocache.DefaultExpiration)
}

func (self *Cache[T]) Delete(key string) {
	self.c.Delete(strings.ToLower(key))
}

func (self *Cache[T]) Flush() {
	self.c.Flush()
}

func (self *Cache[T]) Len() int {
	return self.c.ItemCount()
}
