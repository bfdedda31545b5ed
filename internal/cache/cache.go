package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a small TTL cache for read-mostly catalog data
type Cache struct {
	store *ristretto.Cache
	ttl   time.Duration
}

// New creates a cache whose entries expire after ttl; ttl <= 0 disables caching
func New(ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		return &Cache{}, nil
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Cache{store: store, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	return c.store.Get(key)
}

func (c *Cache) Set(key string, value interface{}) {
	if c == nil || c.store == nil {
		return
	}
	c.store.SetWithTTL(key, value, 1, c.ttl)
}

func (c *Cache) Del(keys ...string) {
	if c == nil || c.store == nil {
		return
	}
	for _, k := range keys {
		c.store.Del(k)
	}
}

// Clear drops every entry; pending Sets are flushed first
func (c *Cache) Clear() {
	if c == nil || c.store == nil {
		return
	}
	c.store.Wait()
	c.store.Clear()
}
