package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

// EventPublisher receives committed mutations. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt *amqp.TransactionEvent) error
}

// TransactionInput is the raw payload of a create or update request.
// Amount holds whatever the JSON decoder produced (json.Number, string, ...).
// DecodeErr carries a transport decoding failure; it is reported in place of
// field validation, so an update still checks the id first.
type TransactionInput struct {
	Description string
	Amount      any
	Date        any
	DecodeErr   error
}

// TransactionService validates inputs and orchestrates the store and the
// event publisher.
type TransactionService struct {
	store     store.TransactionStore
	publisher EventPublisher
	validate  *validator.Validate
}

func NewTransactionService(s store.TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		store:     s,
		publisher: publisher,
		validate:  newValidator(),
	}
}

// CreateTransaction accepts a numeric string amount as well as a number.
func (s *TransactionService) CreateTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	f, err := s.parseFields(in, false)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Create(ctx, f)
	if err != nil {
		return core.Transaction{}, s.storeError("create", err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventCreated, t))
	return t, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	items, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, s.storeError("list", err)
	}
	return items, nil
}

// UpdateTransaction replaces all three fields. The id is checked before the
// input, and the amount must be a number.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id string, in TransactionInput) (core.Transaction, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return core.Transaction{}, s.storeError("update", err)
	}

	f, err := s.parseFields(in, true)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.Update(ctx, id, f)
	if err != nil {
		return core.Transaction{}, s.storeError("update", err)
	}

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventUpdated, t))
	return t, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError("delete", err)
	}

	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

// ComputeMonthlyAggregation is a pure function over records.
func (s *TransactionService) ComputeMonthlyAggregation(records []core.Transaction) []core.MonthTotal {
	return core.MonthlyAggregation(records)
}

// ComputeSummary is a pure function over records.
func (s *TransactionService) ComputeSummary(records []core.Transaction) core.Summary {
	return core.Summarize(records)
}

// Dashboard bundles one listing snapshot with its derived figures.
type Dashboard struct {
	Summary core.Summary
	Monthly []core.MonthTotal
	Recent  []core.Transaction
}

const recentLimit = 5

// Dashboard reads a fresh snapshot and derives summary, chart and recent rows.
func (s *TransactionService) Dashboard(ctx context.Context) (Dashboard, error) {
	items, err := s.ListTransactions(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent := items
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return Dashboard{
		Summary: s.ComputeSummary(items),
		Monthly: s.ComputeMonthlyAggregation(items),
		Recent:  recent,
	}, nil
}

// Ping reports store reachability for the readiness endpoint.
func (s *TransactionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// parseFields checks description, amount, date in that order and reports the
// first failure. strict selects the update rules, where a numeric string
// amount is rejected.
func (s *TransactionService) parseFields(in TransactionInput, strict bool) (core.TransactionFields, error) {
	if in.DecodeErr != nil {
		return core.TransactionFields{}, in.DecodeErr
	}

	parseAmount := core.ParseAmount
	var rules any = createRules{Description: strings.TrimSpace(in.Description), Amount: in.Amount, Date: in.Date}
	if strict {
		parseAmount = core.ParseStrictAmount
		rules = updateRules{Description: strings.TrimSpace(in.Description), Amount: in.Amount, Date: in.Date}
	}
	if err := s.validate.Struct(rules); err != nil {
		return core.TransactionFields{}, firstFieldError(err, in, parseAmount)
	}

	amount, err := parseAmount(in.Amount)
	if err != nil {
		return core.TransactionFields{}, err
	}
	date, err := parseDateInput(in.Date)
	if err != nil {
		return core.TransactionFields{}, err
	}

	return core.TransactionFields{Description: in.Description, Amount: amount, Date: date}, nil
}

// storeError classifies a store failure. Logging is left to the caller,
// which knows the request it belongs to.
func (s *TransactionService) storeError(op string, err error) error {
	err = core.WrapPersistence(op, err)
	if core.IsNotFound(err) {
		return err
	}
	return fmt.Errorf("%s transaction: %w", op, err)
}

// publish is best-effort; the store write has already committed, so the
// event outlives a cancelled request.
func (s *TransactionService) publish(ctx context.Context, evt *amqp.TransactionEvent) {
	ctx = context.WithoutCancel(ctx)
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event",
			"component", "service", "type", evt.Type)
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"component", "service",
			"type", evt.Type,
			"transaction_id", evt.ID,
			"error", err)
	}
}
