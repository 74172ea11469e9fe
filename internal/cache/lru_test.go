package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(ctx, "a", "1")
	c.Set(ctx, "b", "2")
	if v, ok := c.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}

	// a was touched last, so b is evicted
	c.Set(ctx, "c", "3")
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted entry still present")
	}
}

func TestLRUCache_Version(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)

	if v, _ := c.Version(ctx); v != 0 {
		t.Fatalf("Version() = %d, want 0", v)
	}
	for want := uint64(1); want <= 2; want++ {
		if v, err := c.Bump(ctx); err != nil || v != want {
			t.Fatalf("Bump() = %d, %v, want %d", v, err, want)
		}
	}
	if v, _ := c.Version(ctx); v != 2 {
		t.Errorf("Version() = %d, want 2", v)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }

	c.Set(ctx, "x", 1)
	c.Set(ctx, "y", 2)
	now = now.Add(2 * time.Second)
	c.Set(ctx, "z", 3)

	if _, ok := c.Get(ctx, "x"); ok {
		t.Error("expired entry should miss")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestManager_CleanNow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewLRUCache[int](10, time.Millisecond)
	c.now = func() time.Time { return now }
	c.Set(ctx, "k", 1)
	now = now.Add(time.Second)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(time.Hour)
	defer m.Stop()

	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}
