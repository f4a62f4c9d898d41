package cache

import (
	"testing"
	"time"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1, 0)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for absent key")
	}

	c.Set("a", 2, 0)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("update: expected 2, got %d", v)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestLRU_TTL(t *testing.T) {
	c := New[string, int](10, 20*time.Millisecond)

	c.Set("short", 1, 0)
	c.Set("long", 2, 200*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected expiry after default TTL")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("entry with explicit TTL should survive")
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := New[int, int](3, time.Minute)

	for i := 1; i <= 3; i++ {
		c.Set(i, i, 0)
	}
	// Touch 1 so 2 becomes the oldest.
	c.Get(1)
	c.Set(4, 4, 0)

	if _, ok := c.Get(2); ok {
		t.Error("expected oldest entry evicted")
	}
	for _, k := range []int{1, 3, 4} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("entry %d should survive eviction", k)
		}
	}
}

func TestLRU_RemoveAndClear(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1, 0)
	if !c.Remove("a") {
		t.Error("Remove should report existing entry")
	}
	if c.Remove("a") {
		t.Error("Remove should report absent entry")
	}

	c.Set("b", 2, 0)
	c.Set("c", 3, 0)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", c.Len())
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c := New[string, int](10, 10*time.Millisecond)

	c.Set("a", 1, 0)
	c.Set("b", 2, time.Minute)
	time.Sleep(20 * time.Millisecond)

	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("expected 1 expired entry removed, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 surviving entry, got %d", c.Len())
	}
}
