package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// ExportWriter mirrors transactions into a spreadsheet, one row per id.
	ExportWriter interface {
		// Upsert overwrites the row holding t.ID, or appends one.
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)

		// Remove clears the row holding id. Missing rows are not an error.
		Remove(ctx context.Context, id string) error
	}
)
