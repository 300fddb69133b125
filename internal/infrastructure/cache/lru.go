package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/priceless/backend/internal/domain"
)

// LRUCache is an in-process cache for match and comparison responses,
// backed by an expirable LRU. Entries share a single TTL configured at
// construction.
type LRUCache struct {
	entries *expirable.LRU[string, interface{}]
}

// NewLRUCache builds a cache holding at most size entries, each expiring
// ttl after insertion.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1024
	}
	return &LRUCache{
		entries: expirable.NewLRU[string, interface{}](size, nil, ttl),
	}
}

func (c *LRUCache) Get(ctx context.Context, key string) (interface{}, error) {
	value, ok := c.entries.Get(key)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return value, nil
}

func (c *LRUCache) Set(ctx context.Context, key string, value interface{}) error {
	c.entries.Add(key, value)
	return nil
}

func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

func (c *LRUCache) Exists(ctx context.Context, key string) (bool, error) {
	return c.entries.Contains(key), nil
}
