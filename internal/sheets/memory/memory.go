package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

var _ sheets.ExportWriter = (*Sheet)(nil)

// Sheet is an in-process ExportWriter. Cleared rows stay as blank slots so row
// references remain stable, like a real spreadsheet.
type Sheet struct {
	mu   sync.Mutex
	rows []core.Transaction
}

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) Upsert(_ context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		return "", fmt.Errorf("export row without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(t.ID); i >= 0 {
		s.rows[i] = t
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	s.rows = append(s.rows, t)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Sheet) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.rows[i] = core.Transaction{}
	}
	return nil
}

// Rows returns the non-blank rows in sheet order.
func (s *Sheet) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.rows))
	for _, r := range s.rows {
		if r.ID != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Sheet) indexOf(id string) int {
	return slices.IndexFunc(s.rows, func(r core.Transaction) bool { return r.ID == id })
}
