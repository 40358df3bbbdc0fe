package cache

import (
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = (%d, %v), want (3, true)", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](10, -time.Second)
	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry must not be returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size() after expired Get = %d, want 0", c.Size())
	}
}

func TestLRUPurgePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("u1:12", 1)
	c.Set("u1:24", 2)
	c.Set("u2:12", 3)

	if n := c.PurgePrefix("u1:"); n != 2 {
		t.Fatalf("PurgePrefix() = %d, want 2", n)
	}
	if _, ok := c.Get("u1:12"); ok {
		t.Error("purged entry still present")
	}
	if _, ok := c.Get("u2:12"); !ok {
		t.Error("entry outside the prefix was purged")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, -time.Second)
	c.Set("a", 1)
	c.Set("b", 2)
	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
}
