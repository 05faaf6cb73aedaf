// Package export produces one-way tabular views of the transaction list:
// a downloadable CSV file and rows appended to a Google spreadsheet.
// Exports read core state but never write it back.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tally/internal/core"
)

var csvHeader = []string{"Date", "Description", "Category", "Amount", "Emoji"}

// WriteCSV writes the transactions of one type as comma-separated rows:
// locale-formatted date, quoted description, category, plain decimal
// amount, optional emoji.
func WriteCSV(w io.Writer, transactions []core.Transaction, typ core.TransactionType) error {
	lines := []string{strings.Join(csvHeader, ",")}
	for _, t := range transactions {
		if t.Type != typ {
			continue
		}
		lines = append(lines, strings.Join([]string{
			formatDate(t.Date),
			quote(t.Description),
			t.Category,
			t.Amount.String(),
			t.Emoji,
		}, ","))
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return core.NewPersistenceError("write csv", err)
	}
	return nil
}

// Filename returns the download name for an export, e.g.
// "expenses-2026-08-29.csv".
func Filename(typ core.TransactionType, now time.Time) string {
	return fmt.Sprintf("%ss-%s.csv", typ, now.Format("2006-01-02"))
}

func formatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
