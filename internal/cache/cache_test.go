package cache

import (
	"testing"
	"time"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := New(0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Set("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Error("expected a disabled cache to miss")
	}

	var nilCache *Cache
	nilCache.Set("k", 1)
	nilCache.Del("k")
	nilCache.Clear()
	if _, ok := nilCache.Get("k"); ok {
		t.Error("expected a nil cache to miss")
	}
}

func TestSetGetDel(t *testing.T) {
	c, err := New(time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.Set("plan:1", "gold")
	c.store.Wait()

	v, ok := c.Get("plan:1")
	if !ok || v.(string) != "gold" {
		t.Fatalf("expected a hit, got %v %v", v, ok)
	}

	c.Del("plan:1")
	if _, ok := c.Get("plan:1"); ok {
		t.Error("expected a miss after Del")
	}

	c.Set("plan:2", "silver")
	c.Clear()
	if _, ok := c.Get("plan:2"); ok {
		t.Error("expected a miss after Clear")
	}
}
