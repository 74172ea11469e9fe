package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/storetest"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.TransactionStore { return newTestRepository(t) })
}

func TestSQLiteRepositoryMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := repo.Create(ctx, storetest.Fields("Books", "-18.99", "2024-06-01")); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer repo.Close()

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 row after reopen, got %d", len(items))
	}
}

func TestSQLiteRepositoryDateOrderingAcrossCenturies(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	old, _ := repo.Create(ctx, storetest.Fields("old", "1", "0999-05-01"))
	recent, _ := repo.Create(ctx, storetest.Fields("recent", "1", "2024-05-01T00:00:00.5Z"))
	sameDay, _ := repo.Create(ctx, storetest.Fields("same day", "1", "2024-05-01"))

	items, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{recent.ID, sameDay.ID, old.ID}
	for i, id := range want {
		if items[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, items[i].Description, id)
		}
	}
}

func TestSQLiteRepositoryClosed(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "closed.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.Close()

	_, err = repo.ListAll(context.Background())
	var pe *core.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError on closed db, got %v", err)
	}
}
