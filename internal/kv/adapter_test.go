package kv

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tally.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return NewRepository(s)
}

func sampleInput() core.TransactionInput {
	return core.TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.NewFromFloat(9.99),
		Description: "Coffee",
		Category:    "Food",
		Date:        time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestTransactionLifecycle(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	txs, err := r.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("expected empty collection")
	}

	created, err := r.CreateTransaction(ctx, "user-1", sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("id not assigned")
	}

	txs, err = r.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 || txs[0].ID != created.ID {
		t.Fatalf("transaction not persisted: %+v", txs)
	}
	if !txs[0].Amount.Equal(decimal.NewFromFloat(9.99)) {
		t.Fatalf("amount lost precision: %s", txs[0].Amount)
	}

	if err := r.DeleteTransaction(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	txs, _ = r.ListTransactions(ctx, "user-1")
	if len(txs) != 0 {
		t.Fatalf("transaction not deleted")
	}
}

func TestDeleteMissingTransaction(t *testing.T) {
	r := newTestRepository(t)

	err := r.DeleteTransaction(context.Background(), "user-1", "trx-missing")
	if err == nil || !core.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCollectionsScopedPerUser(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	if _, err := r.CreateTransaction(ctx, "user-a", sampleInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	txs, err := r.ListTransactions(ctx, "user-b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("collections leaked across users")
	}
}

func TestCategoryCreate(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	created, err := r.CreateCategory(ctx, "user-1", core.CategoryInput{
		Name: "Books", Type: core.Expense, Color: "#abc",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	cats, err := r.ListCategories(ctx, "user-1")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != created.ID || cats[0].Name != "Books" {
		t.Fatalf("category not persisted: %+v", cats)
	}
}

func TestUserStore(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	u := core.User{ID: "user-1", Email: "Ada@Example.com", Name: "Ada"}
	if err := r.CreateUser(ctx, u, "hash-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Email lookup is case-insensitive.
	got, hash, err := r.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "user-1" || hash != "hash-1" {
		t.Fatalf("unexpected user %+v hash %q", got, hash)
	}

	byID, err := r.GetUserByID(ctx, "user-1")
	if err != nil || byID.Email != "Ada@Example.com" {
		t.Fatalf("get by id: %+v, %v", byID, err)
	}

	dup := core.User{ID: "user-2", Email: "ADA@example.com", Name: "Imposter"}
	err = r.CreateUser(ctx, dup, "hash-2")
	if err == nil || !core.IsValidation(err) {
		t.Fatalf("duplicate email should be a validation error, got %v", err)
	}

	if _, _, err := r.GetUserByEmail(ctx, "nobody@example.com"); !core.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestTokenStore(t *testing.T) {
	r := newTestRepository(t)

	token, err := r.LoadToken()
	if err != nil || token != "" {
		t.Fatalf("empty store should yield empty token, got %q, %v", token, err)
	}

	if err := r.SaveToken("tok-42"); err != nil {
		t.Fatalf("save: %v", err)
	}
	token, _ = r.LoadToken()
	if token != "tok-42" {
		t.Fatalf("token = %q", token)
	}

	if err := r.ClearToken(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	token, _ = r.LoadToken()
	if token != "" {
		t.Fatalf("token not cleared: %q", token)
	}
}
