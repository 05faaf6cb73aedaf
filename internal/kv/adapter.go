package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tally/internal/core"
)

// Key layout. Transaction and category collections are scoped per user;
// users and the session token are global.
const (
	keyToken = "token"
	keyUsers = "users"
)

func transactionsKey(userID string) string { return "transactions-" + userID }
func categoriesKey(userID string) string   { return "categories-" + userID }

// Repository implements the persistence ports over a kv Store. Collections
// are stored as JSON arrays under their scoped keys.
type Repository struct {
	store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := r.load(transactionsKey(userID), &out); err != nil {
		return nil, core.NewPersistenceError("list transactions", err)
	}
	return out, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	t := in.WithID("trx-" + uuid.NewString())

	existing, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := r.save(transactionsKey(userID), append(existing, t)); err != nil {
		return core.Transaction{}, core.NewPersistenceError("create transaction", err)
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	existing, err := r.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}

	remaining := make([]core.Transaction, 0, len(existing))
	found := false
	for _, t := range existing {
		if t.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, t)
	}
	if !found {
		return core.NewNotFoundError("transaction", id)
	}
	if err := r.save(transactionsKey(userID), remaining); err != nil {
		return core.NewPersistenceError("delete transaction", err)
	}
	return nil
}

func (r *Repository) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	var out []core.Category
	if err := r.load(categoriesKey(userID), &out); err != nil {
		return nil, core.NewPersistenceError("list categories", err)
	}
	return out, nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:    "cat-" + uuid.NewString(),
		Name:  in.Name,
		Type:  in.Type,
		Color: in.Color,
	}

	existing, err := r.ListCategories(ctx, userID)
	if err != nil {
		return core.Category{}, err
	}
	if err := r.save(categoriesKey(userID), append(existing, c)); err != nil {
		return core.Category{}, core.NewPersistenceError("create category", err)
	}
	return c, nil
}

// storedUser is the on-disk user record; the password hash never leaves
// this package.
type storedUser struct {
	core.User
	PasswordHash string `json:"passwordHash"`
}

func (r *Repository) CreateUser(_ context.Context, u core.User, passwordHash string) error {
	var users []storedUser
	if err := r.load(keyUsers, &users); err != nil {
		return core.NewPersistenceError("load users", err)
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.NewValidationError("user with this email already exists")
		}
	}
	users = append(users, storedUser{User: u, PasswordHash: passwordHash})
	if err := r.save(keyUsers, users); err != nil {
		return core.NewPersistenceError("save users", err)
	}
	return nil
}

func (r *Repository) GetUserByEmail(_ context.Context, email string) (core.User, string, error) {
	var users []storedUser
	if err := r.load(keyUsers, &users); err != nil {
		return core.User{}, "", core.NewPersistenceError("load users", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u.User, u.PasswordHash, nil
		}
	}
	return core.User{}, "", core.NewNotFoundError("user", email)
}

func (r *Repository) GetUserByID(_ context.Context, id string) (core.User, error) {
	var users []storedUser
	if err := r.load(keyUsers, &users); err != nil {
		return core.User{}, core.NewPersistenceError("load users", err)
	}
	for _, u := range users {
		if u.ID == id {
			return u.User, nil
		}
	}
	return core.User{}, core.NewNotFoundError("user", id)
}

func (r *Repository) SaveToken(token string) error {
	if err := r.store.Set(keyToken, token); err != nil {
		return core.NewPersistenceError("save token", err)
	}
	return nil
}

func (r *Repository) LoadToken() (string, error) {
	token, _ := r.store.Get(keyToken)
	return token, nil
}

func (r *Repository) ClearToken() error {
	if err := r.store.Remove(keyToken); err != nil {
		return core.NewPersistenceError("clear token", err)
	}
	return nil
}

func (r *Repository) load(key string, out any) error {
	raw, ok := r.store.Get(key)
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (r *Repository) save(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.store.Set(key, string(raw))
}
