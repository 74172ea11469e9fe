package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// EventType names the mutation that produced a TransactionEvent.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

// TransactionEvent is published after a committed mutation. Transaction is
// nil for deletions.
type TransactionEvent struct {
	Type        EventType         `json:"type"`
	ID          string            `json:"id"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// NewTransactionEvent builds an event carrying a copy of t.
func NewTransactionEvent(typ EventType, t core.Transaction) *TransactionEvent {
	evt := &TransactionEvent{
		Type:      typ,
		ID:        t.ID,
		Timestamp: time.Now().UTC(),
	}
	if typ != EventDeleted {
		evt.Transaction = &t
	}
	return evt
}

// NewDeletedEvent builds the event for a removed transaction.
func NewDeletedEvent(id string) *TransactionEvent {
	return &TransactionEvent{Type: EventDeleted, ID: id, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("event without id")
	}
	switch evt.Type {
	case EventCreated, EventUpdated:
		if evt.Transaction == nil {
			return nil, fmt.Errorf("%s event %s without transaction", evt.Type, evt.ID)
		}
	case EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	return &evt, nil
}
