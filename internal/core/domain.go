package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

type (
	TransactionType string

	// User is the authenticated identity for the current session.
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	// Transaction is a single dated monetary event. Transactions are
	// immutable once created; there is no update operation.
	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        time.Time       `json:"date"`
		Emoji       string          `json:"emoji,omitempty"`
	}

	// TransactionInput carries the fields of a transaction before an id
	// has been assigned by the backend.
	TransactionInput struct {
		Type        TransactionType `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Date        time.Time       `json:"date"`
		Emoji       string          `json:"emoji,omitempty"`
	}

	// Category is a named, typed, colored grouping applied to transactions.
	Category struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Type  TransactionType `json:"type"`
		Color string          `json:"color"`
	}

	CategoryInput struct {
		Name  string          `json:"name"`
		Type  TransactionType `json:"type"`
		Color string          `json:"color"`
	}

	// CategoryAmount is one slice of a per-category breakdown.
	CategoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
		Color    string          `json:"color"`
	}

	// DashboardStats is the derived aggregate view over the current
	// transaction set. It is recomputed on every mutation and never stored.
	DashboardStats struct {
		TotalExpenses      decimal.Decimal  `json:"totalExpenses"`
		TotalIncome        decimal.Decimal  `json:"totalIncome"`
		Balance            decimal.Decimal  `json:"balance"`
		RecentTransactions []Transaction    `json:"recentTransactions"`
		ExpenseCategories  []CategoryAmount `json:"expenseCategories"`
		IncomeCategories   []CategoryAmount `json:"incomeCategories"`
	}
)

// FallbackColor is used when a transaction names a category that does not
// exist; aggregation degrades gracefully instead of failing.
const FallbackColor = "#ccc"

// IsValid reports whether the transaction type is one of the two known kinds.
func (t TransactionType) IsValid() bool {
	return t == Expense || t == Income
}

func (in TransactionInput) Validate() error {
	if !in.Type.IsValid() {
		return NewValidationError("type must be expense or income")
	}
	if !in.Amount.IsPositive() {
		return NewValidationError("amount must be positive")
	}
	if strings.TrimSpace(in.Description) == "" {
		return NewValidationError("description cannot be empty")
	}
	if len(in.Description) > 200 {
		return NewValidationError("description too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewValidationError("category cannot be empty")
	}
	if in.Date.IsZero() {
		return NewValidationError("date cannot be zero")
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("category name cannot be empty")
	}
	if !in.Type.IsValid() {
		return NewValidationError("type must be expense or income")
	}
	return nil
}

// Transaction carries id-bearing fields; validation of the remainder is
// shared with TransactionInput.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewValidationError("transaction id cannot be empty")
	}
	return t.Input().Validate()
}

// Input strips the assigned id, returning the creation-time fields.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
		Emoji:       t.Emoji,
	}
}

// WithID returns the transaction the input describes once the backend has
// assigned an id.
func (in TransactionInput) WithID(id string) Transaction {
	return Transaction{
		ID:          id,
		Type:        in.Type,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Date:        in.Date,
		Emoji:       in.Emoji,
	}
}

// DefaultCategories returns the fixed category set seeded for every new
// identity.
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-1", Name: "Food", Type: Expense, Color: "#e74c3c"},
		{ID: "cat-2", Name: "Transportation", Type: Expense, Color: "#e67e22"},
		{ID: "cat-3", Name: "Housing", Type: Expense, Color: "#f39c12"},
		{ID: "cat-4", Name: "Entertainment", Type: Expense, Color: "#9b59b6"},
		{ID: "cat-5", Name: "Utilities", Type: Expense, Color: "#3498db"},
		{ID: "cat-6", Name: "Salary", Type: Income, Color: "#2ecc71"},
		{ID: "cat-7", Name: "Freelance", Type: Income, Color: "#1abc9c"},
		{ID: "cat-8", Name: "Investments", Type: Income, Color: "#27ae60"},
		{ID: "cat-9", Name: "Gifts", Type: Income, Color: "#8e44ad"},
	}
}

// ZeroStats is the baseline dashboard before any data is loaded, and after
// the identity is cleared.
func ZeroStats() DashboardStats {
	return DashboardStats{
		TotalExpenses:      decimal.Zero,
		TotalIncome:        decimal.Zero,
		Balance:            decimal.Zero,
		RecentTransactions: []Transaction{},
		ExpenseCategories:  []CategoryAmount{},
		IncomeCategories:   []CategoryAmount{},
	}
}
