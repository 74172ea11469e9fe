// Package core provides the transaction domain model.
//
// This file converts boundary amount values into decimals. Numbers arrive
// from JSON either as json.Number (decoder with UseNumber) or float64; the
// create path also tolerates numeric strings.
package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a number or a numeric string into a decimal amount.
//
// Examples:
//
//	ParseAmount(json.Number("12.5")) -> 12.5, nil
//	ParseAmount("-30")               -> -30, nil
//	ParseAmount("abc")               -> error
func ParseAmount(v any) (decimal.Decimal, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, NewValidationError(FieldAmount, "amount is required")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, NewValidationError(FieldAmount, "amount must be a number")
		}
		return checkFinite(d)
	}
	return ParseStrictAmount(v)
}

// ParseStrictAmount accepts only number-typed values; a numeric string is
// rejected.
func ParseStrictAmount(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, NewValidationError(FieldAmount, "amount is required")
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, NewValidationError(FieldAmount, "amount must be a number")
		}
		return checkFinite(d)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, NewValidationError(FieldAmount, "amount must be finite")
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return ParseStrictAmount(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return checkFinite(n)
	default:
		return decimal.Zero, NewValidationError(FieldAmount, "amount must be a number")
	}
}

// checkFinite rejects amounts that overflow float64, since every amount leaves
// the service as a JSON number.
func checkFinite(d decimal.Decimal) (decimal.Decimal, error) {
	if math.IsInf(d.InexactFloat64(), 0) {
		return decimal.Zero, NewValidationError(FieldAmount, "amount must be finite")
	}
	return d, nil
}

// AmountFloat returns the amount as a JSON-friendly float.
// Sums are computed on decimals; only the final value is converted.
func AmountFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
