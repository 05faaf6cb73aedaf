// Package persist declares the ports for outbound persistence adapters.
// Implementations live in storage (SQLite), kv (file-backed key-value) and
// remote (HTTP API client).
package persist

import (
	"context"

	"tally/internal/core"
)

type (
	TransactionLister interface {
		// ListTransactions returns the transactions scoped to one user,
		// in insertion order.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		// CreateTransaction persists the input and returns the transaction
		// with its assigned id.
		CreateTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error)
	}

	TransactionDeleter interface {
		// DeleteTransaction removes the transaction with the given id.
		// A missing id yields a core.NotFoundError.
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error)
	}

	// UserStore backs the local authentication service.
	UserStore interface {
		// CreateUser stores a new user with its password hash. An existing
		// email yields a core.ValidationError.
		CreateUser(ctx context.Context, u core.User, passwordHash string) error
		// GetUserByEmail returns the user and its password hash, or a
		// core.NotFoundError.
		GetUserByEmail(ctx context.Context, email string) (core.User, string, error)
		GetUserByID(ctx context.Context, id string) (core.User, error)
	}

	// TokenStore persists the session credential token between process
	// lifetimes. It is process-global, not scoped per user.
	TokenStore interface {
		SaveToken(token string) error
		// LoadToken returns the persisted token, or "" when none exists.
		LoadToken() (string, error)
		ClearToken() error
	}
)
