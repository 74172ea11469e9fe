package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
)

type sheetsCall struct {
	method           string
	valueInputOption string
	values           [][]any
}

// newTestClient points a Client at a fake Sheets API whose column A holds ids.
func newTestClient(t *testing.T, ids [][]any) (*Client, *[]sheetsCall) {
	t.Helper()
	var calls []sheetsCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := sheetsCall{method: r.Method, valueInputOption: r.URL.Query().Get("valueInputOption")}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(gsheet.ValueRange{Values: ids})
		case http.MethodPost, http.MethodPut:
			var vr gsheet.ValueRange
			if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
				t.Errorf("decode request body: %v", err)
			}
			call.values = vr.Values
			if r.Method == http.MethodPost {
				json.NewEncoder(w).Encode(gsheet.AppendValuesResponse{
					Updates: &gsheet.UpdateValuesResponse{UpdatedRange: "'Transactions'!A3:D3"},
				})
			} else {
				json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{})
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		calls = append(calls, call)
	}))
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() = %v", err)
	}
	return &Client{svc: svc, spreadsheetID: "sheet-id", sheetName: defaultSheetName}, &calls
}

func TestUpsertWritesRawRow(t *testing.T) {
	tx := core.Transaction{
		ID:          "abc",
		Description: "=HYPERLINK(\"http://example.com\")",
		Amount:      decimal.RequireFromString("-42.50"),
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	wantRow := []any{"abc", "2024-01-15T00:00:00.000Z", "=HYPERLINK(\"http://example.com\")", "-42.5"}

	tests := []struct {
		name      string
		ids       [][]any
		method    string
		wantRange string
	}{
		{"append new row", [][]any{{"ID"}, {"other"}}, http.MethodPost, "'Transactions'!A3:D3"},
		{"update existing row", [][]any{{"ID"}, {"abc"}}, http.MethodPut, "'Transactions'!A2:D2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newTestClient(t, tt.ids)
			rng, err := c.Upsert(context.Background(), tx)
			if err != nil {
				t.Fatalf("Upsert() = %v", err)
			}
			if rng != tt.wantRange {
				t.Errorf("range = %q, want %q", rng, tt.wantRange)
			}
			if len(*calls) != 2 {
				t.Fatalf("got %d API calls, want 2", len(*calls))
			}
			write := (*calls)[1]
			if write.method != tt.method {
				t.Errorf("method = %s, want %s", write.method, tt.method)
			}
			if write.valueInputOption != "RAW" {
				t.Errorf("valueInputOption = %q, want RAW", write.valueInputOption)
			}
			if len(write.values) != 1 || len(write.values[0]) != len(wantRow) {
				t.Fatalf("values = %v, want one row %v", write.values, wantRow)
			}
			for i := range wantRow {
				if write.values[0][i] != wantRow[i] {
					t.Errorf("column %d = %v, want %v", i, write.values[0][i], wantRow[i])
				}
			}
		})
	}
}
