package cache

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a is now most recent
		t.Fatalf("expected a")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %v %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", "x")
	c.Set("b", "y")
	now = now.Add(30 * time.Second)
	c.Set("b", "y2") // refreshes b's TTL

	now = now.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Fatalf("expected nothing left to clean, removed %d", removed)
	}
	if v, ok := c.Get("b"); !ok || v != "y2" {
		t.Fatalf("b should still be live, got %q %v", v, ok)
	}

	now = now.Add(time.Hour)
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected 1 expired entry, removed %d", removed)
	}
}

func TestCollectionsCopyOnReadAndWrite(t *testing.T) {
	c := NewCollections(10, time.Minute)
	seed := core.SeedTransactions("u1")
	c.Set("u1", seed)

	seed[0].Description = "mutated after Set"
	got, ok := c.Get("u1")
	if !ok || len(got) != 7 {
		t.Fatalf("expected mirrored collection, got %d %v", len(got), ok)
	}
	if got[0].Description != "Monthly Salary" {
		t.Fatalf("mirror shares memory with caller: %q", got[0].Description)
	}

	got[1].Description = "mutated after Get"
	again, _ := c.Get("u1")
	if again[1].Description != "Coffee at Starbucks" {
		t.Fatalf("mirror shares memory with reader: %q", again[1].Description)
	}

	c.Set("u2", nil)
	empty, ok := c.Get("u2")
	if !ok || empty == nil || len(empty) != 0 {
		t.Fatalf("empty collection should be cached as empty, got %v %v", empty, ok)
	}
}

func TestManagerCleanNowAndStop(t *testing.T) {
	c := NewLRUCache[int](10, -time.Second) // everything is born expired
	c.Set("a", 1)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
