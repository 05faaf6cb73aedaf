package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func exportTx(typ core.TransactionType, amount, desc, cat string, at time.Time) core.Transaction {
	a, _ := decimal.NewFromString(amount)
	return core.Transaction{
		ID:          "trx-1",
		Type:        typ,
		Amount:      a,
		Description: desc,
		Category:    cat,
		Date:        at,
	}
}

func TestWriteCSV(t *testing.T) {
	txs := []core.Transaction{
		exportTx(core.Expense, "12.50", "Lunch", "Food", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		exportTx(core.Income, "1000", "Paycheck", "Salary", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		exportTx(core.Expense, "7.25", "Bus pass", "Transportation", time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)),
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, txs, core.Expense); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Date,Description,Category,Amount,Emoji" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != `3/5/2024,"Lunch",Food,12.5,` {
		t.Fatalf("row 1 = %q", lines[1])
	}
	// Months and days are not zero-padded.
	if lines[2] != `11/20/2024,"Bus pass",Transportation,7.25,` {
		t.Fatalf("row 2 = %q", lines[2])
	}
}

func TestWriteCSVFiltersByType(t *testing.T) {
	txs := []core.Transaction{
		exportTx(core.Expense, "1", "Coffee", "Food", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		exportTx(core.Income, "2", "Refund", "Gifts", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, txs, core.Income); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "Coffee") {
		t.Fatalf("expense row leaked into income export: %q", out)
	}
	if !strings.Contains(out, "Refund") {
		t.Fatalf("income row missing: %q", out)
	}
}

func TestWriteCSVEscapesQuotes(t *testing.T) {
	txs := []core.Transaction{
		exportTx(core.Expense, "3", `The "Special" deal`, "Food", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, txs, core.Expense); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"The ""Special"" deal"`) {
		t.Fatalf("quotes not doubled: %q", buf.String())
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil, core.Expense); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "Date,Description,Category,Amount,Emoji" {
		t.Fatalf("empty export should be header only: %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	if got := Filename(core.Expense, now); got != "expenses-2024-03-05.csv" {
		t.Fatalf("expense filename = %q", got)
	}
	if got := Filename(core.Income, now); got != "incomes-2024-03-05.csv" {
		t.Fatalf("income filename = %q", got)
	}
}
