package worker

import (
	"context"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/log"
	"tally/internal/notify"

	"github.com/shopspring/decimal"
)

func newTestRelay(exporter *export.SheetsExporter) (*Relay, *notify.Buffer) {
	var buf notify.Buffer
	return NewRelay(exporter, &buf, log.New(log.DefaultConfig())), &buf
}

func createdEvent() *amqp.TransactionEvent {
	return amqp.NewCreatedEvent("user-1", core.Transaction{
		ID:          "trx-1",
		Type:        core.Expense,
		Amount:      decimal.NewFromFloat(12.50),
		Description: "Lunch",
		Category:    "Food",
		Date:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestHandleCreatedNotifies(t *testing.T) {
	relay, buf := newTestRelay(nil)

	if err := relay.Handle(context.Background(), createdEvent()); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := buf.All()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].Title != "Transaction recorded" {
		t.Fatalf("title = %q", got[0].Title)
	}
}

func TestHandleDeletedNotifies(t *testing.T) {
	relay, buf := newTestRelay(nil)

	event := amqp.NewDeletedEvent("user-1", "trx-9")
	if err := relay.Handle(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got := buf.All()
	if len(got) != 1 || got[0].Title != "Transaction deleted" {
		t.Fatalf("unexpected notifications: %+v", got)
	}
}

func TestHandleUnknownActionAcked(t *testing.T) {
	relay, _ := newTestRelay(nil)

	event := &amqp.TransactionEvent{Action: "archived", TransactionID: "trx-1"}
	if err := relay.Handle(context.Background(), event); err != nil {
		t.Fatalf("unknown actions must be acknowledged, got %v", err)
	}
}

func TestHandleMalformedAmountAcked(t *testing.T) {
	// A broken exporter distinguishes the malformed-event path (acked, never
	// reaches the exporter) from the export-failure path (requeued).
	relay, _ := newTestRelay(&export.SheetsExporter{})

	event := createdEvent()
	event.Amount = "not-a-number"

	if err := relay.Handle(context.Background(), event); err != nil {
		t.Fatalf("malformed events must be acknowledged, got %v", err)
	}
}

func TestHandleExportFailureRequeued(t *testing.T) {
	relay, _ := newTestRelay(&export.SheetsExporter{})

	if err := relay.Handle(context.Background(), createdEvent()); err == nil {
		t.Fatalf("export failure should surface to requeue the message")
	}
}
