package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleInput() core.TransactionInput {
	return core.TransactionInput{
		Type:        core.Expense,
		Amount:      decimal.RequireFromString("12.50"),
		Description: "Lunch",
		Category:    "Food",
		Date:        time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Emoji:       "🍜",
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, "user-1", sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("id not assigned")
	}

	txs, err := repo.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}

	got := txs[0]
	if got.ID != created.ID || got.Type != core.Expense {
		t.Fatalf("identity lost: %+v", got)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("amount = %s, want 12.50 exactly", got.Amount)
	}
	if !got.Date.Equal(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", got.Date)
	}
	if got.Emoji != "🍜" {
		t.Fatalf("emoji = %q", got.Emoji)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		in := sampleInput()
		in.Description = string(rune('a' + i))
		created, err := repo.CreateTransaction(ctx, "user-1", in)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, created.ID)
	}

	txs, err := repo.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, id := range ids {
		if txs[i].ID != id {
			t.Fatalf("order broken at %d: %s != %s", i, txs[i].ID, id)
		}
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, "user-1", sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteTransaction(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = repo.DeleteTransaction(ctx, "user-1", created.ID)
	if err == nil || !core.IsNotFound(err) {
		t.Fatalf("second delete should be not-found, got %v", err)
	}
}

func TestDeleteScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateTransaction(ctx, "user-a", sampleInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = repo.DeleteTransaction(ctx, "user-b", created.ID)
	if err == nil || !core.IsNotFound(err) {
		t.Fatalf("cross-user delete should be not-found, got %v", err)
	}

	txs, _ := repo.ListTransactions(ctx, "user-a")
	if len(txs) != 1 {
		t.Fatalf("owner's transaction should survive")
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateCategory(ctx, "user-1", core.CategoryInput{
		Name: "Books", Type: core.Expense, Color: "#123456",
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	cats, err := repo.ListCategories(ctx, "user-1")
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != created.ID || cats[0].Color != "#123456" {
		t.Fatalf("category lost: %+v", cats)
	}
}

func TestUserStore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u := core.User{ID: "user-1", Email: "ada@example.com", Name: "Ada"}
	if err := repo.CreateUser(ctx, u, "hash-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, hash, err := repo.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != "user-1" || hash != "hash-1" {
		t.Fatalf("get by email: %+v %q %v", got, hash, err)
	}

	byID, err := repo.GetUserByID(ctx, "user-1")
	if err != nil || byID.Name != "Ada" {
		t.Fatalf("get by id: %+v %v", byID, err)
	}

	// Email uniqueness is case-insensitive (NOCASE collation).
	dup := core.User{ID: "user-2", Email: "ADA@example.com", Name: "Imposter"}
	err = repo.CreateUser(ctx, dup, "hash-2")
	if err == nil || !core.IsValidation(err) {
		t.Fatalf("duplicate email should be a validation error, got %v", err)
	}

	if _, _, err := repo.GetUserByEmail(ctx, "ghost@example.com"); !core.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tally.db")

	first, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := first.CreateTransaction(context.Background(), "user-1", sampleInput()); err != nil {
		t.Fatalf("create: %v", err)
	}
	first.Close()

	// Reopening runs migrations again; existing data must survive.
	second, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer second.Close()

	txs, err := second.ListTransactions(context.Background(), "user-1")
	if err != nil || len(txs) != 1 {
		t.Fatalf("data lost across reopen: %d, %v", len(txs), err)
	}
}
