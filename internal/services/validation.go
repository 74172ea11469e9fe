package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// createRules and updateRules are the normalized request views checked by
// the validator. Field order is the order failures are reported in.
type createRules struct {
	Description string `json:"description" validate:"required"`
	Amount      any    `json:"amount" validate:"amount"`
	Date        any    `json:"date" validate:"isodate"`
}

type updateRules struct {
	Description string `json:"description" validate:"required"`
	Amount      any    `json:"amount" validate:"strict_amount"`
	Date        any    `json:"date" validate:"isodate"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// The registrations below only fail on an empty tag or nil func.
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseAmount(fl.Field().Interface())
		return err == nil
	})
	_ = v.RegisterValidation("strict_amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseStrictAmount(fl.Field().Interface())
		return err == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := parseDateInput(fl.Field().Interface())
		return err == nil
	})
	return v
}

// firstFieldError turns the first validator failure into a field-level
// ValidationError. The message comes from the parser for that field so it
// says why the value was rejected.
func firstFieldError(err error, in TransactionInput, parseAmount func(any) (decimal.Decimal, error)) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch fe := verrs[0]; fe.Field() {
	case core.FieldAmount:
		if _, perr := parseAmount(in.Amount); perr != nil {
			return perr
		}
		return core.NewValidationError(core.FieldAmount, "amount must be a number")
	case core.FieldDate:
		if _, perr := parseDateInput(in.Date); perr != nil {
			return perr
		}
		return core.NewValidationError(core.FieldDate, "date must be an ISO-8601 string")
	default:
		return core.NewValidationError(fe.Field(), fe.Field()+" is required")
	}
}

// parseDateInput accepts only ISO-8601 strings; JSON numbers and other types
// are rejected.
func parseDateInput(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, core.NewValidationError(core.FieldDate, "date is required")
	case string:
		return core.ParseDate(d)
	default:
		return time.Time{}, core.NewValidationError(core.FieldDate, "date must be an ISO-8601 string")
	}
}
