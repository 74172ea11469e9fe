package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
)

type failingWriter struct{ err error }

func (f failingWriter) Upsert(context.Context, core.Transaction) (string, error) { return "", f.err }
func (f failingWriter) Remove(context.Context, string) error                     { return f.err }

func sample(id, desc string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: desc,
		Amount:      decimal.RequireFromString("-12.30"),
		Date:        time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestExportWorker_EventSequence(t *testing.T) {
	ctx := context.Background()
	sheet := memory.New()
	w := NewExportWorker(sheet)

	steps := []struct {
		evt      *amqp.TransactionEvent
		wantRows []string
	}{
		{amqp.NewTransactionEvent(amqp.EventCreated, sample("a", "Lunch")), []string{"Lunch"}},
		{amqp.NewTransactionEvent(amqp.EventCreated, sample("b", "Taxi")), []string{"Lunch", "Taxi"}},
		{amqp.NewTransactionEvent(amqp.EventUpdated, sample("a", "Dinner")), []string{"Dinner", "Taxi"}},
		{amqp.NewDeletedEvent("b"), []string{"Dinner"}},
		{amqp.NewTransactionEvent(amqp.EventUpdated, sample("c", "Late edit")), []string{"Dinner", "Late edit"}},
	}

	for i, step := range steps {
		if err := w.HandleEvent(ctx, step.evt); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		rows := sheet.Rows()
		if len(rows) != len(step.wantRows) {
			t.Fatalf("step %d: rows = %+v, want %v", i, rows, step.wantRows)
		}
		for j, d := range step.wantRows {
			if rows[j].Description != d {
				t.Errorf("step %d row %d = %q, want %q", i, j, rows[j].Description, d)
			}
		}
	}
}

func TestExportWorker_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	w := NewExportWorker(failingWriter{err: boom})

	tests := []struct {
		name string
		evt  *amqp.TransactionEvent
	}{
		{"created", amqp.NewTransactionEvent(amqp.EventCreated, sample("a", "x"))},
		{"deleted", amqp.NewDeletedEvent("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.HandleEvent(ctx, tt.evt); !errors.Is(err, boom) {
				t.Errorf("expected wrapped writer error, got %v", err)
			}
		})
	}

	if err := w.HandleEvent(ctx, &amqp.TransactionEvent{Type: "archived", ID: "a"}); err == nil {
		t.Error("unknown event types should fail")
	}
	if err := w.HandleEvent(ctx, &amqp.TransactionEvent{Type: amqp.EventCreated, ID: "a"}); err == nil {
		t.Error("created event without payload should fail")
	}
}
