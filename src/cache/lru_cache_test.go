package cache

import (
	"testing"
	"time"
)

func TestLRUCacheSetGet(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("a", []float32{1, 2, 3})

	vec, ok := c.Get("a")
	if !ok {
		t.Fatalf("expected hit for key a")
	}
	if len(vec) != 3 || vec[0] != 1 {
		t.Fatalf("unexpected vector: %#v", vec)
	}

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("c", []float32{3})

	if c.Len() != 2 {
		t.Fatalf("expected capacity 2, got %d", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatalf("expected newest entry present")
	}
}

func TestLRUCacheExpires(t *testing.T) {
	c := NewLRUCache(2, -time.Second)
	c.Set("a", []float32{1})
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestLRUCacheUpdateMovesToFront(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Set("a", []float32{9})
	c.Set("c", []float32{3})

	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected refreshed entry to survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected stale entry evicted")
	}
}

func TestHashKeyStable(t *testing.T) {
	if HashKey("What is AI?") != HashKey("What is AI?") {
		t.Fatalf("expected identical keys for identical text")
	}
	if HashKey("a") == HashKey("b") {
		t.Fatalf("expected distinct keys for distinct text")
	}
}
