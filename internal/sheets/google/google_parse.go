package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// rowValues lays a transaction out as A:D = id, date, description, amount.
func rowValues(t core.Transaction) []any {
	return []any{t.ID, core.FormatDate(t.Date), t.Description, t.Amount.String()}
}

// findRowIndex scans a single-column matrix for id and returns its 1-based
// row number, or 0 when absent.
func findRowIndex(values [][]interface{}, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// quoteSheet wraps a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func columnRange(sheet, from, to string) string {
	return fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), from, to)
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:D%d", quoteSheet(sheet), row, row)
}
