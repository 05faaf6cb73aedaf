// Package auth provides the authentication service port and its two
// implementations: a local user-store-backed service and a client for a
// remote authentication collaborator.
package auth

import (
	"context"

	"tally/internal/core"
)

// Credentials pairs an authenticated identity with its bearer token.
type Credentials struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

// Service is the external authentication collaborator. Failures surface as
// the core error taxonomy: AuthError for credential problems,
// ValidationError for malformed or conflicting registration input,
// PersistenceError when the service itself cannot be reached.
type Service interface {
	Register(ctx context.Context, email, name, password string) (Credentials, error)
	Login(ctx context.Context, email, password string) (Credentials, error)
	// Verify resolves a token back to its identity, or an AuthError when
	// the token is invalid or expired.
	Verify(ctx context.Context, token string) (core.User, error)
}
