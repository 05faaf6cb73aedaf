package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"tally/internal/core"
)

// SQLiteRepository implements the persistence ports on an embedded SQLite
// database. Amounts are stored as decimal strings, dates as RFC 3339 text.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, amount, description, category, date, emoji
		FROM transactions WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, core.NewPersistenceError("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, core.NewPersistenceError("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list transactions", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	t := in.WithID("trx-" + uuid.NewString())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, description, category, date, emoji)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Type), t.Amount.String(), t.Description,
		t.Category, t.Date.Format(time.RFC3339Nano), t.Emoji)
	if err != nil {
		return core.Transaction{}, core.NewPersistenceError("create transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return core.NewPersistenceError("delete transaction", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.NewPersistenceError("delete transaction", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("transaction", id)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, color
		FROM categories WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, core.NewPersistenceError("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ, &c.Color); err != nil {
			return nil, core.NewPersistenceError("scan category", err)
		}
		c.Type = core.TransactionType(typ)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewPersistenceError("list categories", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	c := core.Category{
		ID:    "cat-" + uuid.NewString(),
		Name:  in.Name,
		Type:  in.Type,
		Color: in.Color,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, color)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, string(c.Type), c.Color)
	if err != nil {
		return core.Category{}, core.NewPersistenceError("create category", err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return core.NewValidationError("user with this email already exists")
		}
		return core.NewPersistenceError("create user", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, string, error) {
	var u core.User
	var hash string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, "", core.NewNotFoundError("user", email)
	}
	if err != nil {
		return core.User{}, "", core.NewPersistenceError("get user by email", err)
	}
	return u, hash, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.NewNotFoundError("user", id)
	}
	if err != nil {
		return core.User{}, core.NewPersistenceError("get user by id", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, amount, date string
	if err := row.Scan(&t.ID, &typ, &amount, &t.Description, &t.Category, &date, &t.Emoji); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)

	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Amount = parsedAmount

	parsedDate, err := time.Parse(time.RFC3339Nano, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.Date = parsedDate

	return t, nil
}
