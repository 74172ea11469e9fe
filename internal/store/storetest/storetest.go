// Package storetest holds behaviour checks shared by every TransactionStore
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Fields builds a valid TransactionFields for the given day.
func Fields(desc string, amount string, date string) core.TransactionFields {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.TransactionFields{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        d,
	}
}

// Run exercises s through the full store contract. newStore must return an
// empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.TransactionStore) {
	t.Helper()

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		items, err := s.ListAll(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", items)
		}
	})

	t.Run("create assigns id and persists verbatim", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		in := Fields("Salary", "1500.25", "2024-02-01T09:30:15.123Z")

		created, err := s.Create(ctx, in)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected an assigned id")
		}
		assertFields(t, created, in)

		got, err := s.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		assertFields(t, got, in)
	})

	t.Run("list orders newest first with stable ties", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := mustCreate(t, s, Fields("a", "1", "2024-01-15"))
		b := mustCreate(t, s, Fields("b", "2", "2024-03-01"))
		c := mustCreate(t, s, Fields("c", "3", "2024-01-15"))
		d := mustCreate(t, s, Fields("d", "4", "2023-12-31"))

		items, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		assertOrder(t, items, b.ID, a.ID, c.ID, d.ID)

		again, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("second list: %v", err)
		}
		assertOrder(t, again, b.ID, a.ID, c.ID, d.ID)
	})

	t.Run("update replaces fields and keeps id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		created := mustCreate(t, s, Fields("Lunch", "-12", "2024-05-05"))
		next := Fields("Dinner", "-40.5", "2024-05-06T20:00:00Z")

		updated, err := s.Update(ctx, created.ID, next)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.ID != created.ID {
			t.Fatalf("id changed: %s -> %s", created.ID, updated.ID)
		}
		assertFields(t, updated, next)

		items, _ := s.ListAll(ctx)
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		assertFields(t, items[0], next)
	})

	t.Run("update keeps tie order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		a := mustCreate(t, s, Fields("a", "1", "2024-01-15"))
		b := mustCreate(t, s, Fields("b", "2", "2024-01-15"))
		if _, err := s.Update(ctx, a.ID, Fields("a2", "1", "2024-01-15")); err != nil {
			t.Fatalf("update: %v", err)
		}
		items, _ := s.ListAll(ctx)
		assertOrder(t, items, a.ID, b.ID)
	})

	t.Run("missing ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("get: expected ErrNotFound, got %v", err)
		}
		if _, err := s.Update(ctx, "missing", Fields("x", "1", "2024-01-01")); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("update: expected ErrNotFound, got %v", err)
		}
		if err := s.Delete(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete removes and second delete fails", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		keep := mustCreate(t, s, Fields("keep", "1", "2024-01-01"))
		gone := mustCreate(t, s, Fields("gone", "2", "2024-01-02"))

		if err := s.Delete(ctx, gone.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		items, _ := s.ListAll(ctx)
		assertOrder(t, items, keep.ID)

		if err := s.Delete(ctx, gone.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ids are never reused", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			created := mustCreate(t, s, Fields("x", "1", "2024-01-01"))
			if seen[created.ID] {
				t.Fatalf("id %s reused", created.ID)
			}
			seen[created.ID] = true
			if i%2 == 0 {
				if err := s.Delete(ctx, created.ID); err != nil {
					t.Fatalf("delete: %v", err)
				}
			}
		}
	})
}

func mustCreate(t *testing.T, s store.TransactionStore, f core.TransactionFields) core.Transaction {
	t.Helper()
	created, err := s.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("create %q: %v", f.Description, err)
	}
	return created
}

func assertFields(t *testing.T, got core.Transaction, want core.TransactionFields) {
	t.Helper()
	if got.Description != want.Description {
		t.Errorf("description = %q, want %q", got.Description, want.Description)
	}
	if !got.Amount.Equal(want.Amount) {
		t.Errorf("amount = %s, want %s", got.Amount, want.Amount)
	}
	if !got.Date.Equal(want.Date) {
		t.Errorf("date = %s, want %s", got.Date.Format(time.RFC3339Nano), want.Date.Format(time.RFC3339Nano))
	}
}

func assertOrder(t *testing.T, items []core.Transaction, ids ...string) {
	t.Helper()
	if len(items) != len(ids) {
		t.Fatalf("got %d items, want %d", len(items), len(ids))
	}
	for i, id := range ids {
		if items[i].ID != id {
			t.Errorf("position %d: got %s (%s), want %s", i, items[i].ID, items[i].Description, id)
		}
	}
}
