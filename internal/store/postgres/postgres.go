// Package postgres provides a PostgreSQL-backed transaction store using
// lib/pq. The schema is created on open.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    seq         BIGSERIAL PRIMARY KEY,
    id          UUID        NOT NULL UNIQUE,
    description TEXT        NOT NULL CHECK (length(trim(description)) > 0),
    amount      NUMERIC     NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_transactions_occurred_at ON transactions (occurred_at DESC, seq ASC);
`

var (
	_ store.TransactionStore = (*Store)(nil)
	_ store.Pinger           = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

// New connects to databaseURL and ensures the schema exists. PostgreSQL
// keeps microsecond precision; finer fractions are truncated.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping implements store.Pinger
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create implements store.TransactionStore
func (s *Store) Create(ctx context.Context, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := f.WithID(uuid.NewString())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount, occurred_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Description, t.Amount.String(), t.Date.UTC())
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("create", fmt.Errorf("insert transaction: %w", err))
	}

	slog.InfoContext(ctx, "Transaction saved to PostgreSQL",
		"component", "storage",
		"transaction_id", t.ID,
		"amount", t.Amount.String(),
		"date", core.FormatDate(t.Date))

	return t, nil
}

// ListAll implements store.TransactionStore
func (s *Store) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, amount::text, occurred_at FROM transactions ORDER BY occurred_at DESC, seq ASC`)
	if err != nil {
		return nil, core.WrapPersistence("list", fmt.Errorf("query transactions: %w", err))
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, core.WrapPersistence("list", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapPersistence("list", fmt.Errorf("iterate transactions: %w", err))
	}
	return out, nil
}

// Get implements store.TransactionStore
func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, amount::text, occurred_at FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("get", err)
	}
	return t, nil
}

// Update implements store.TransactionStore
func (s *Store) Update(ctx context.Context, id string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	// Non-UUID ids cannot exist and would fail the cast.
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		    SET description = $1, amount = $2, occurred_at = $3, updated_at = now()
		  WHERE id = $4`,
		f.Description, f.Amount.String(), f.Date.UTC(), id)
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("update", fmt.Errorf("update transaction: %w", err))
	}
	if err := expectOneRow(res, "update", id); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated in PostgreSQL", "component", "storage", "transaction_id", id)
	return f.WithID(id), nil
}

// Delete implements store.TransactionStore
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return core.WrapPersistence("delete", fmt.Errorf("delete transaction: %w", err))
	}
	if err := expectOneRow(res, "delete", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted from PostgreSQL", "component", "storage", "transaction_id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t      core.Transaction
		amount string
	)
	if err := s.Scan(&t.ID, &t.Description, &amount, &t.Date); err != nil {
		return t, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return t, fmt.Errorf("decode amount of %s: %w", t.ID, err)
	}
	t.Amount = d
	t.Date = t.Date.UTC()
	return t, nil
}

func expectOneRow(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return core.WrapPersistence(op, fmt.Errorf("rows affected: %w", err))
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, core.ErrNotFound)
	}
	return nil
}
