package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var (
	_ store.TransactionStore = (*Store)(nil)
	_ store.Pinger           = (*Store)(nil)
)

// Store keeps records in insertion order, which breaks ties between equal
// dates when listing.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	newID func() string
}

func New() *Store {
	return &Store{newID: uuid.NewString}
}

// NewFromFiles returns a store seeded from base/seed_transactions.json when
// the file exists. Invalid seed rows are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, f := range readSeed(filepath.Join(base, "seed_transactions.json")) {
		if _, err := s.Create(context.Background(), f); err != nil {
			slog.Warn("Skipping invalid seed transaction", "description", f.Description, "error", err)
		}
	}
	return s
}

// Create stores f under a fresh id.
func (s *Store) Create(_ context.Context, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := f.WithID(s.newID())
	s.items = append(s.items, t)
	return t, nil
}

// ListAll returns a copy of every record, newest first.
func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := slices.Clone(s.items)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	return s.items[i], nil
}

// Update replaces the three fields of id in place; the insertion position is kept.
func (s *Store) Update(_ context.Context, id string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("update %s: %w", id, core.ErrNotFound)
	}
	s.items[i] = f.WithID(id)
	return s.items[i], nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(t core.Transaction) bool { return t.ID == id })
}

type seedRow struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
}

func readSeed(path string) []core.TransactionFields {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rows []seedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		slog.Warn("Ignoring malformed seed file", "path", path, "error", err)
		return nil
	}
	out := make([]core.TransactionFields, 0, len(rows))
	for _, r := range rows {
		amount, err := core.ParseStrictAmount(r.Amount)
		if err != nil {
			continue
		}
		date, err := core.ParseDate(r.Date)
		if err != nil {
			continue
		}
		out = append(out, core.TransactionFields{Description: r.Description, Amount: amount, Date: date})
	}
	return out
}
