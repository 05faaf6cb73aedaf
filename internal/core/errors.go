package core

import (
	"errors"
	"fmt"
)

// The closed error taxonomy. Loosely-typed failures from collaborators are
// mapped into these four kinds at the store boundary; nothing outside the
// taxonomy crosses it.

// ValidationError reports malformed input caught before any I/O. Operations
// that fail validation never touch state, so partial failure is impossible.
type ValidationError struct {
	Reason string
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// AuthError reports a credential mismatch or an expired/invalid token.
type AuthError struct {
	Reason string
}

func NewAuthError(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

// PersistenceError reports a storage or service read/write failure. The
// underlying cause is preserved for logging; callers branch on the type only.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return "persistence: " + e.Op
	}
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotFoundError reports an operation targeting a missing id. Stores treat it
// as benign, not fatal.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
