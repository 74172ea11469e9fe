// Package http provides HTTP server and handler implementations.
//
// This file implements request body decoding and the JSON views of domain
// values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const maxBodyBytes = 1 << 20

// transactionRequest is the body of create and update calls. Amount and date
// stay untyped so the service can tell a number from a numeric string.
type transactionRequest struct {
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Date        any    `json:"date"`
}

// ParseTransactionInput decodes a JSON body into a service input. Numbers
// are kept as json.Number. Decode failures come back as *core.ValidationError.
func ParseTransactionInput(w http.ResponseWriter, r *http.Request) (services.TransactionInput, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.TransactionInput{}, core.NewValidationError("", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return services.TransactionInput{}, core.NewValidationError("", "could not read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return services.TransactionInput{}, core.NewValidationError("", "request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var req transactionRequest
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return services.TransactionInput{}, core.NewValidationError(typeErr.Field, typeErr.Field+" has the wrong type")
		}
		return services.TransactionInput{}, core.NewValidationError("", "request body must be a JSON object")
	}

	return services.TransactionInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
	}, nil
}

type transactionJSON struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		Amount:      core.AmountFloat(t.Amount),
		Date:        core.FormatDate(t.Date),
	}
}

func toTransactionList(items []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(items))
	for _, t := range items {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type summaryJSON struct {
	TotalSpent       float64 `json:"total_spent"`
	TransactionCount int     `json:"transaction_count"`
	HighestExpense   float64 `json:"highest_expense"`
}

type monthTotalJSON struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type dashboardJSON struct {
	Summary summaryJSON       `json:"summary"`
	Monthly []monthTotalJSON  `json:"monthly"`
	Recent  []transactionJSON `json:"recent"`
}

func toDashboardJSON(d services.Dashboard) dashboardJSON {
	monthly := make([]monthTotalJSON, 0, len(d.Monthly))
	for _, m := range d.Monthly {
		monthly = append(monthly, monthTotalJSON{Month: m.Month, Total: core.AmountFloat(m.Total)})
	}
	return dashboardJSON{
		Summary: summaryJSON{
			TotalSpent:       core.AmountFloat(d.Summary.TotalSpent),
			TransactionCount: d.Summary.TransactionCount,
			HighestExpense:   core.AmountFloat(d.Summary.HighestExpense),
		},
		Monthly: monthly,
		Recent:  toTransactionList(d.Recent),
	}
}
