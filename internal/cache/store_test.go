package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/storetest"
)

type countingStore struct {
	store.TransactionStore
	lists atomic.Int32
	gate  chan struct{}
}

func (s *countingStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	s.lists.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.TransactionStore.ListAll(ctx)
}

func newCached(t *testing.T) (*CachedStore, *countingStore) {
	t.Helper()
	inner := &countingStore{TransactionStore: memory.New()}
	return NewCachedStore(inner, NewLRUCache[[]core.Transaction](4, time.Minute)), inner
}

func TestCachedStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.TransactionStore {
		s, _ := newCached(t)
		return s
	})
}

func TestCachedStore_ServesRepeatedListsFromCache(t *testing.T) {
	ctx := context.Background()
	s, inner := newCached(t)
	if _, err := s.Create(ctx, storetest.Fields("Coffee", "-3", "2024-01-02")); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		items, err := s.ListAll(ctx)
		if err != nil || len(items) != 1 {
			t.Fatalf("ListAll() = %v, %v", items, err)
		}
	}
	if got := inner.lists.Load(); got != 1 {
		t.Errorf("underlying ListAll called %d times, want 1", got)
	}
}

func TestCachedStore_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	s, _ := newCached(t)

	a, _ := s.Create(ctx, storetest.Fields("A", "1", "2024-01-01"))
	if items, _ := s.ListAll(ctx); len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}

	b, _ := s.Create(ctx, storetest.Fields("B", "2", "2024-01-02"))
	items, _ := s.ListAll(ctx)
	if len(items) != 2 || items[0].ID != b.ID {
		t.Fatalf("create not visible: %+v", items)
	}

	if _, err := s.Update(ctx, a.ID, storetest.Fields("A2", "1", "2024-01-03")); err != nil {
		t.Fatal(err)
	}
	items, _ = s.ListAll(ctx)
	if items[0].Description != "A2" {
		t.Fatalf("update not visible: %+v", items)
	}

	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	items, _ = s.ListAll(ctx)
	if len(items) != 1 || items[0].ID != a.ID {
		t.Fatalf("delete not visible: %+v", items)
	}
}

func TestCachedStore_ReturnedSliceIsCallerOwned(t *testing.T) {
	ctx := context.Background()
	s, _ := newCached(t)
	s.Create(ctx, storetest.Fields("Rent", "-900", "2024-02-01"))

	first, _ := s.ListAll(ctx)
	first[0].Description = "mutated"

	second, _ := s.ListAll(ctx)
	if second[0].Description != "Rent" {
		t.Errorf("cached listing was mutated through a returned slice")
	}
}

func TestCachedStore_ConcurrentMissesCollapse(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{TransactionStore: memory.New(), gate: make(chan struct{})}
	s := NewCachedStore(inner, NewLRUCache[[]core.Transaction](4, time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ListAll(ctx); err != nil {
				t.Error(err)
			}
		}()
	}

	// let the goroutines pile onto the first load
	time.Sleep(50 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	if got := inner.lists.Load(); got != 1 {
		t.Errorf("underlying ListAll called %d times, want 1", got)
	}
}

// snapshotStore reads the listing, then blocks until released, so the caller
// can mutate the store while a stale load is in flight.
type snapshotStore struct {
	store.TransactionStore
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *snapshotStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	items, err := s.TransactionStore.ListAll(ctx)
	s.once.Do(func() { close(s.loaded) })
	<-s.release
	return items, err
}

func TestCachedStore_StaleLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	shared := NewLRUCache[[]core.Transaction](4, time.Minute)
	backing := memory.New()
	backing.Create(ctx, storetest.Fields("A", "1", "2024-01-01"))

	slow := &snapshotStore{TransactionStore: backing, loaded: make(chan struct{}), release: make(chan struct{})}
	first := NewCachedStore(slow, shared)
	second := NewCachedStore(backing, shared)

	done := make(chan []core.Transaction)
	go func() {
		items, _ := first.ListAll(ctx)
		done <- items
	}()
	<-slow.loaded

	if _, err := second.Create(ctx, storetest.Fields("B", "1", "2024-01-02")); err != nil {
		t.Fatal(err)
	}
	close(slow.release)
	if stale := <-done; len(stale) != 1 {
		t.Fatalf("in-flight load returned %d items, want 1", len(stale))
	}

	for name, s := range map[string]*CachedStore{"first": first, "second": second} {
		items, err := s.ListAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 2 {
			t.Errorf("%s: stale listing served, got %d items", name, len(items))
		}
	}
}

// flakyCache fails Bump while broken is set.
type flakyCache struct {
	*LRUCache[[]core.Transaction]
	broken atomic.Bool
}

func (c *flakyCache) Bump(ctx context.Context) (uint64, error) {
	if c.broken.Load() {
		return 0, errors.New("cache unreachable")
	}
	return c.LRUCache.Bump(ctx)
}

func TestCachedStore_FailedInvalidationBypassesCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{TransactionStore: memory.New()}
	c := &flakyCache{LRUCache: NewLRUCache[[]core.Transaction](4, time.Minute)}
	s := NewCachedStore(inner, c)

	a, _ := s.Create(ctx, storetest.Fields("A", "1", "2024-01-01"))
	if items, _ := s.ListAll(ctx); len(items) != 1 {
		t.Fatalf("want 1 item, got %d", len(items))
	}

	c.broken.Store(true)
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() = %v, the store write succeeded", err)
	}
	for i := 0; i < 2; i++ {
		if items, _ := s.ListAll(ctx); len(items) != 0 {
			t.Fatalf("cached listing served after failed invalidation: %+v", items)
		}
	}
	if got := inner.lists.Load(); got != 3 {
		t.Errorf("underlying ListAll called %d times, want 3", got)
	}

	c.broken.Store(false)
	s.ListAll(ctx)
	s.ListAll(ctx)
	if got := inner.lists.Load(); got != 4 {
		t.Errorf("cache not resumed after recovery, loads = %d, want 4", got)
	}
}

func TestCachedStore_FailedMutationKeepsCache(t *testing.T) {
	ctx := context.Background()
	s, inner := newCached(t)
	s.Create(ctx, storetest.Fields("A", "1", "2024-01-01"))
	s.ListAll(ctx)

	if err := s.Delete(ctx, "missing"); err == nil {
		t.Fatal("expected not found")
	}
	s.ListAll(ctx)
	if got := inner.lists.Load(); got != 1 {
		t.Errorf("failed delete should not invalidate, loads = %d", got)
	}
}
