package cache

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// listKeyPrefix prefixes the cache key holding the full newest-first listing.
// The listing version is appended, see listKey.
const listKeyPrefix = "transactions:all:v"

var (
	_ store.TransactionStore = (*CachedStore)(nil)
	_ store.Pinger           = (*CachedStore)(nil)
)

// ListCache is the cache CachedStore needs: entries plus a version counter
// shared by every CachedStore on the same backend.
type ListCache interface {
	Cache[[]core.Transaction]
	Versioner
}

// CachedStore serves ListAll from a cache. Every mutation bumps the shared
// listing version before it returns, so listings cached under an older
// version, by this instance or any other, are never served again.
//
// When a bump fails, this instance reads straight from the store until a
// later bump succeeds.
type CachedStore struct {
	next  store.TransactionStore
	cache ListCache
	group singleflight.Group

	mu    sync.Mutex
	dirty bool
}

func NewCachedStore(next store.TransactionStore, c ListCache) *CachedStore {
	return &CachedStore{next: next, cache: c}
}

func listKey(version uint64) string {
	return listKeyPrefix + strconv.FormatUint(version, 10)
}

func (s *CachedStore) ListAll(ctx context.Context) ([]core.Transaction, error) {
	if !s.cacheUsable(ctx) {
		return s.next.ListAll(ctx)
	}
	version, err := s.cache.Version(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Cache version unavailable, reading store", "component", "cache", "error", err)
		return s.next.ListAll(ctx)
	}

	key := listKey(version)
	if items, ok := s.cache.Get(ctx, key); ok {
		slog.DebugContext(ctx, "Cache hit", "component", "cache", "key", key)
		return slices.Clone(items), nil
	}

	// The version is read before the load, so a load racing a mutation can
	// only fill a key that the mutation has already retired.
	v, err, _ := s.group.Do(key, func() (any, error) {
		items, err := s.next.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, slices.Clone(items))
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]core.Transaction)), nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.next.Get(ctx, id)
}

func (s *CachedStore) Create(ctx context.Context, f core.TransactionFields) (core.Transaction, error) {
	t, err := s.next.Create(ctx, f)
	if err != nil {
		return t, err
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *CachedStore) Update(ctx context.Context, id string, f core.TransactionFields) (core.Transaction, error) {
	t, err := s.next.Update(ctx, id, f)
	if err != nil {
		return t, err
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Ping delegates to the wrapped store when it supports health checks.
func (s *CachedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// cacheUsable reports whether reads may go through the cache, retrying a
// pending invalidation first.
func (s *CachedStore) cacheUsable(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return true
	}
	return s.bumpLocked(ctx)
}

// invalidate runs after the store write has committed, so a failure cannot be
// reported to the caller. It marks the cache unusable instead.
func (s *CachedStore) invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bumpLocked(ctx)
}

func (s *CachedStore) bumpLocked(ctx context.Context) bool {
	// The write is done; a cancelled request must still retire the old listing.
	ctx = context.WithoutCancel(ctx)
	version, err := s.cache.Bump(ctx)
	if err != nil {
		s.dirty = true
		slog.ErrorContext(ctx, "Cache invalidation failed, reading store until it succeeds",
			"component", "cache", "error", err)
		return false
	}
	s.dirty = false

	// The retired listing is unreachable already; dropping it only frees space.
	old := listKey(version - 1)
	if err := s.cache.Delete(ctx, old); err != nil {
		slog.WarnContext(ctx, "Retired cache entry not removed", "component", "cache", "key", old, "error", err)
	}
	slog.DebugContext(ctx, "Cache invalidated", "component", "cache", "version", version)
	return true
}
