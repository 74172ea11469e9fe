package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Transaction is one monetary event. ID is assigned by the store.
	Transaction struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Date        time.Time       `json:"date"`
	}

	// TransactionFields are the three replaceable fields of a transaction.
	TransactionFields struct {
		Description string
		Amount      decimal.Decimal
		Date        time.Time
	}
)

// Fields returns the mutable part of the transaction.
func (t Transaction) Fields() TransactionFields {
	return TransactionFields{
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date,
	}
}

// WithID builds a stored transaction from its fields.
func (f TransactionFields) WithID(id string) Transaction {
	return Transaction{
		ID:          id,
		Description: f.Description,
		Amount:      f.Amount,
		Date:        f.Date,
	}
}

// Validate checks the invariants every stored record must satisfy.
func (f TransactionFields) Validate() error {
	if strings.TrimSpace(f.Description) == "" {
		return NewValidationError(FieldDescription, "description is required")
	}
	if f.Date.IsZero() {
		return NewValidationError(FieldDate, "date is required")
	}
	if y := f.Date.Year(); y < MinYear || y > MaxYear {
		return NewValidationError(FieldDate, fmt.Sprintf("date year must be between %d and %d", MinYear, MaxYear))
	}
	return nil
}

const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDate        = "date"
)

var (
	// ErrNotFound is returned when no transaction has the requested id.
	ErrNotFound = errors.New("transaction not found")
)

// ValidationError reports the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// PersistenceError wraps a storage failure. Its detail is meant for logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence wraps err as a PersistenceError unless it already carries a
// known kind.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	var ve *ValidationError
	if errors.Is(err, ErrNotFound) || errors.As(err, &pe) || errors.As(err, &ve) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err signals a missing transaction.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
