package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"donghaeng/internal/core"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a change to a user's transactions.
// Mapped is false when the raw category fell through to Other.
type TransactionEvent struct {
	Type          EventType     `json:"type"`
	TransactionID string        `json:"transactionId"`
	OwnerID       string        `json:"ownerId"`
	RawCategory   string        `json:"rawCategory,omitempty"`
	Category      core.Category `json:"category,omitempty"`
	Mapped        bool          `json:"mapped"`
	Amount        int64         `json:"amount,omitempty"`
	OccurredOn    string        `json:"occurredOn,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// NewCreatedEvent builds the event published after a transaction is stored.
func NewCreatedEvent(t core.Transaction, mapped bool) *TransactionEvent {
	return &TransactionEvent{
		Type:          EventCreated,
		TransactionID: t.ID,
		OwnerID:       t.OwnerID,
		RawCategory:   t.RawCategory,
		Category:      t.Category,
		Mapped:        mapped,
		Amount:        t.Amount,
		OccurredOn:    t.OccurredOn.String(),
		Timestamp:     time.Now().UTC(),
	}
}

func NewDeletedEvent(ownerID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		Type:          EventDeleted,
		TransactionID: transactionID,
		OwnerID:       ownerID,
		Mapped:        true,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Validate checks the fields a consumer relies on.
func (e *TransactionEvent) Validate() error {
	switch e.Type {
	case EventCreated:
		if strings.TrimSpace(e.RawCategory) == "" {
			return fmt.Errorf("%w: created event without raw category", ErrInvalidEvent)
		}
	case EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.TransactionID == "" || e.OwnerID == "" {
		return fmt.Errorf("%w: missing transaction or owner id", ErrInvalidEvent)
	}
	return nil
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
