package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func tx(id, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: desc,
		Amount:      decimal.NewFromInt(10),
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSheetUpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.Upsert(ctx, tx("a", "first"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	s.Upsert(ctx, tx("b", "second"))

	ref, err = s.Upsert(ctx, tx("a", "first, edited"))
	if err != nil || ref != "mem:1" {
		t.Fatalf("upsert should overwrite row 1: ref=%q err=%v", ref, err)
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Fatalf("remove of missing row should be a no-op: %v", err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != "b" {
		t.Fatalf("unexpected rows %+v", rows)
	}

	// b keeps its slot after a is cleared
	if ref, _ := s.Upsert(ctx, tx("b", "second, edited")); ref != "mem:2" {
		t.Errorf("ref = %q, want mem:2", ref)
	}
}

func TestSheetRejectsMissingID(t *testing.T) {
	if _, err := New().Upsert(context.Background(), tx("", "x")); err == nil {
		t.Fatal("expected error for row without id")
	}
}
