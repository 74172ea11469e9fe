package store

import (
	"context"

	"fintrack/internal/core"
)

// Ports for transaction persistence.
type (
	// TransactionStore is a durable, flat collection of transactions.
	// Implementations assign ids, never reuse them, and list newest first
	// with ties in insertion order. Missing ids yield core.ErrNotFound.
	TransactionStore interface {
		Create(ctx context.Context, f core.TransactionFields) (core.Transaction, error)
		ListAll(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id string) (core.Transaction, error)
		Update(ctx context.Context, id string, f core.TransactionFields) (core.Transaction, error)
		Delete(ctx context.Context, id string) error
	}

	// Pinger is implemented by stores that can report reachability.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
