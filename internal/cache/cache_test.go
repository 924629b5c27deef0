package cache

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLRUCache_Expiry(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clk.now)

	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry returned")
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d after expiry, want 0", c.Size())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry evicted")
	}
}

func TestLRUCache_SetWithTTLAndClean(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Hour).WithClock(clk.now)
	c.SetWithTTL("short", 1, time.Second)
	c.Set("long", 2)

	clk.t = clk.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("long-lived entry removed")
	}
}

func TestManager_Sweep(t *testing.T) {
	clk := &clock{t: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Second).WithClock(clk.now)
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(nil)
	m.Register(c)
	clk.t = clk.t.Add(time.Minute)
	if n := m.Sweep(); n != 2 {
		t.Errorf("Sweep = %d, want 2", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}
