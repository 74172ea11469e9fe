package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

// occurred_at is stored as fixed-width UTC text so that string order equals
// time order for years 0001-9999.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var (
	_ store.TransactionStore = (*SQLiteRepository)(nil)
	_ store.Pinger           = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; sqlite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements store.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements store.TransactionStore
func (r *SQLiteRepository) Create(ctx context.Context, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := f.WithID(uuid.NewString())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount, occurred_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount.String(), formatTime(t.Date))
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("create", fmt.Errorf("insert transaction: %w", err))
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"component", "storage",
		"transaction_id", t.ID,
		"amount", t.Amount.String(),
		"date", core.FormatDate(t.Date))

	return t, nil
}

// ListAll implements store.TransactionStore
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, occurred_at FROM transactions ORDER BY occurred_at DESC, seq ASC`)
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
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount, occurred_at FROM transactions WHERE id = ?`, id)
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
func (r *SQLiteRepository) Update(ctx context.Context, id string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		    SET description = ?, amount = ?, occurred_at = ?,
		        updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		  WHERE id = ?`,
		f.Description, f.Amount.String(), formatTime(f.Date), id)
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("update", fmt.Errorf("update transaction: %w", err))
	}
	if err := expectOneRow(res, "update", id); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction updated in SQLite", "component", "storage", "transaction_id", id)
	return f.WithID(id), nil
}

// Delete implements store.TransactionStore
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return core.WrapPersistence("delete", fmt.Errorf("delete transaction: %w", err))
	}
	if err := expectOneRow(res, "delete", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite", "component", "storage", "transaction_id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		amount     string
		occurredAt string
	)
	if err := s.Scan(&t.ID, &t.Description, &amount, &occurredAt); err != nil {
		return t, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return t, fmt.Errorf("decode amount of %s: %w", t.ID, err)
	}
	at, err := time.Parse(timeLayout, occurredAt)
	if err != nil {
		return t, fmt.Errorf("decode date of %s: %w", t.ID, err)
	}
	t.Amount = d
	t.Date = at
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

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
