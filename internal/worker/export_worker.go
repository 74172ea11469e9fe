package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/sheets"
)

// ExportWorker mirrors transaction events into a spreadsheet.
type ExportWorker struct {
	writer sheets.ExportWriter
}

func NewExportWorker(writer sheets.ExportWriter) *ExportWorker {
	return &ExportWorker{writer: writer}
}

// HandleEvent applies one event. Errors are returned so the consumer can
// requeue the message.
func (w *ExportWorker) HandleEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"component", "worker",
		"type", evt.Type,
		"transaction_id", evt.ID,
		"timestamp", evt.Timestamp)

	switch evt.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if evt.Transaction == nil {
			return fmt.Errorf("%s event %s has no transaction", evt.Type, evt.ID)
		}
		ref, err := w.writer.Upsert(ctx, *evt.Transaction)
		if err != nil {
			return fmt.Errorf("export transaction %s: %w", evt.ID, err)
		}
		slog.InfoContext(ctx, "Transaction exported",
			"component", "worker",
			"transaction_id", evt.ID,
			"row_ref", ref)
	case amqp.EventDeleted:
		if err := w.writer.Remove(ctx, evt.ID); err != nil {
			return fmt.Errorf("remove exported transaction %s: %w", evt.ID, err)
		}
		slog.InfoContext(ctx, "Exported transaction removed",
			"component", "worker",
			"transaction_id", evt.ID)
	default:
		return fmt.Errorf("unknown event type %q", evt.Type)
	}
	return nil
}
