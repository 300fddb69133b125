package cache

import (
	"context"
	"testing"
	"time"

	"github.com/priceless/backend/internal/domain"
)

func TestLRUCacheSetAndGet(t *testing.T) {
	c := NewLRUCache(16, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "match:sut", "cached-value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := c.Get(ctx, "match:sut")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "cached-value" {
		t.Errorf("expected 'cached-value', got %v", value)
	}
}

func TestLRUCacheMiss(t *testing.T) {
	c := NewLRUCache(16, time.Minute)

	_, err := c.Get(context.Background(), "missing")
	if err != domain.ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache(16, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "key", "value")
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err := c.Exists(ctx, "key")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected key to be gone after Delete")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache(16, 10*time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "key", "value")
	time.Sleep(30 * time.Millisecond)

	if _, err := c.Get(ctx, "key"); err != domain.ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after TTL, got %v", err)
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	c.Set(ctx, "c", 3)

	exists, _ := c.Exists(ctx, "a")
	if exists {
		t.Error("expected oldest entry to be evicted at capacity")
	}
}
