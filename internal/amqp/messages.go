package amqp

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEvent announces a transaction mutation on the event queue.
// Consumers (the notifier relay) receive enough context to render a
// user-visible message without a database round trip.
type TransactionEvent struct {
	Action        string    `json:"action"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewCreatedEvent(userID string, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Action:        ActionCreated,
		UserID:        userID,
		TransactionID: t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		Description:   t.Description,
		Category:      t.Category,
		Timestamp:     time.Now(),
	}
}

func NewDeletedEvent(userID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		Action:        ActionDeleted,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
