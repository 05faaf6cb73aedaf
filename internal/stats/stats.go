// Package stats derives dashboard and analytics views from the current
// transaction set. Every function is pure: no I/O, no mutation of inputs,
// deterministic output for identical input.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

const recentLimit = 5

// Compute builds the dashboard aggregate from the transaction and category
// collections. Category colors are resolved by name, first match wins;
// unknown categories fall back to core.FallbackColor.
func Compute(transactions []core.Transaction, categories []core.Category) core.DashboardStats {
	out := core.ZeroStats()

	for _, t := range transactions {
		switch t.Type {
		case core.Expense:
			out.TotalExpenses = out.TotalExpenses.Add(t.Amount)
		case core.Income:
			out.TotalIncome = out.TotalIncome.Add(t.Amount)
		}
	}
	out.Balance = out.TotalIncome.Sub(out.TotalExpenses)

	out.RecentTransactions = recent(transactions)
	out.ExpenseCategories = byCategory(transactions, categories, core.Expense)
	out.IncomeCategories = byCategory(transactions, categories, core.Income)

	return out
}

// recent returns up to recentLimit transactions sorted by date descending.
// Ties keep their original relative order.
func recent(transactions []core.Transaction) []core.Transaction {
	sorted := append([]core.Transaction(nil), transactions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > recentLimit {
		sorted = sorted[:recentLimit]
	}
	if sorted == nil {
		sorted = []core.Transaction{}
	}
	return sorted
}

// byCategory sums amounts per category name for one transaction type,
// preserving first-encountered order.
func byCategory(transactions []core.Transaction, categories []core.Category, typ core.TransactionType) []core.CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range transactions {
		if t.Type != typ {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, core.CategoryAmount{
			Category: name,
			Amount:   sums[name],
			Color:    colorFor(categories, name),
		})
	}
	return out
}

func colorFor(categories []core.Category, name string) string {
	for _, c := range categories {
		if c.Name == name {
			return c.Color
		}
	}
	return core.FallbackColor
}

// MonthlySummary is one calendar-month bucket of the income/expenses series.
type MonthlySummary struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Expenses decimal.Decimal `json:"expenses"`
	Income   decimal.Decimal `json:"income"`
}

// PeriodKey renders the bucket label ("2/2024"). Ordering never relies on
// this string; buckets compare year-major, month-minor as integers.
func (m MonthlySummary) PeriodKey() string {
	return fmt.Sprintf("%d/%d", m.Month, m.Year)
}

// GroupByMonth buckets transactions by calendar month and year, summing
// expense and income amounts separately. The result is ordered by year,
// then month.
func GroupByMonth(transactions []core.Transaction) []MonthlySummary {
	type key struct{ year, month int }
	buckets := make(map[key]*MonthlySummary)
	var order []key

	for _, t := range transactions {
		k := key{year: t.Date.Year(), month: int(t.Date.Month())}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlySummary{Month: k.month, Year: k.year, Expenses: decimal.Zero, Income: decimal.Zero}
			buckets[k] = b
			order = append(order, k)
		}
		if t.Type == core.Expense {
			b.Expenses = b.Expenses.Add(t.Amount)
		} else {
			b.Income = b.Income.Add(t.Amount)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].year != order[j].year {
			return order[i].year < order[j].year
		}
		return order[i].month < order[j].month
	})

	out := make([]MonthlySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *buckets[k])
	}
	return out
}

// CategoryTotal is one category slice of the ranking series.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// GroupByCategory sums amounts per category for one transaction type,
// sorted by amount descending. Ties keep first-encountered order.
func GroupByCategory(transactions []core.Transaction, typ core.TransactionType) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range transactions {
		if t.Type != typ {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryTotal{Category: name, Amount: sums[name]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}

// Timeframe is a relative date-range filter applied before aggregation.
type Timeframe string

const (
	TimeframeAll     Timeframe = "all"
	Timeframe30Days  Timeframe = "30days"
	Timeframe6Months Timeframe = "6months"
	Timeframe1Year   Timeframe = "1year"
)

func (tf Timeframe) IsValid() bool {
	switch tf {
	case TimeframeAll, Timeframe30Days, Timeframe6Months, Timeframe1Year:
		return true
	}
	return false
}

// FilterByTimeframe keeps transactions dated on or after now minus the
// window. The cutoff is derived once from now, not per transaction.
func FilterByTimeframe(transactions []core.Transaction, tf Timeframe, now time.Time) []core.Transaction {
	if tf == TimeframeAll {
		return append([]core.Transaction(nil), transactions...)
	}

	var cutoff time.Time
	switch tf {
	case Timeframe30Days:
		cutoff = now.AddDate(0, 0, -30)
	case Timeframe6Months:
		cutoff = now.AddDate(0, -6, 0)
	case Timeframe1Year:
		cutoff = now.AddDate(-1, 0, 0)
	default:
		return append([]core.Transaction(nil), transactions...)
	}

	out := make([]core.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}
