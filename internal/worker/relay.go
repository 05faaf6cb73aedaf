// Package worker consumes transaction events off the queue and relays them
// to downstream sinks: the notification log and, when configured, the
// Google spreadsheet mirror.
package worker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/log"
	"tally/internal/notify"
)

// Relay processes one event at a time. Exporter may be nil; events are
// still logged and notified without it.
type Relay struct {
	exporter *export.SheetsExporter
	notifier notify.Notifier
	logger   *log.Logger
}

func NewRelay(exporter *export.SheetsExporter, notifier notify.Notifier, logger *log.Logger) *Relay {
	return &Relay{
		exporter: exporter,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentNotifier),
	}
}

// Handle dispatches a single event. A nil error acknowledges the message;
// an error requeues it.
func (r *Relay) Handle(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Action {
	case amqp.ActionCreated:
		return r.handleCreated(ctx, event)
	case amqp.ActionDeleted:
		r.logger.InfoContext(ctx, "Transaction deleted",
			log.FieldUserID, event.UserID,
			log.FieldTxID, event.TransactionID)
		notify.Info(r.notifier, "Transaction deleted",
			fmt.Sprintf("Transaction %s was removed", event.TransactionID))
		return nil
	default:
		// Unknown actions are acknowledged, not requeued: a newer producer
		// would otherwise wedge the queue.
		r.logger.WarnContext(ctx, "Ignoring event with unknown action",
			"action", event.Action, log.FieldTxID, event.TransactionID)
		return nil
	}
}

func (r *Relay) handleCreated(ctx context.Context, event *amqp.TransactionEvent) error {
	r.logger.InfoContext(ctx, "Transaction created",
		log.FieldUserID, event.UserID,
		log.FieldTxID, event.TransactionID,
		log.FieldTxType, event.Type,
		log.FieldAmount, event.Amount,
		log.FieldCategory, event.Category)

	notify.Info(r.notifier, "Transaction recorded",
		fmt.Sprintf("%s - $%s (%s)", event.Description, event.Amount, event.Category))

	if r.exporter == nil {
		return nil
	}

	t, err := transactionFromEvent(event)
	if err != nil {
		// A malformed event never becomes well-formed on retry.
		r.logger.ErrorContext(ctx, "Dropping malformed event",
			log.FieldTxID, event.TransactionID, log.FieldError, err)
		return nil
	}

	if err := r.exporter.Export(ctx, []core.Transaction{t}, t.Type); err != nil {
		r.logger.ErrorContext(ctx, "Failed to mirror transaction to spreadsheet",
			log.FieldTxID, event.TransactionID, log.FieldError, err)
		return err
	}

	r.logger.InfoContext(ctx, "Transaction mirrored to spreadsheet",
		log.FieldTxID, event.TransactionID)
	return nil
}

func transactionFromEvent(event *amqp.TransactionEvent) (core.Transaction, error) {
	amount, err := decimal.NewFromString(event.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", event.Amount, err)
	}
	typ := core.TransactionType(event.Type)
	if !typ.IsValid() {
		return core.Transaction{}, fmt.Errorf("unknown transaction type %q", event.Type)
	}
	return core.Transaction{
		ID:          event.TransactionID,
		Type:        typ,
		Amount:      amount,
		Description: event.Description,
		Category:    event.Category,
		Date:        event.Timestamp,
	}, nil
}
