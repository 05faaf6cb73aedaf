// Package session owns the current authenticated identity and its
// credential token, and mediates every identity transition.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/notify"
	"tally/internal/persist"
)

// Store holds the single current identity. It is created at application
// start and injected into its consumers; there is no ambient global state.
type Store struct {
	auth     auth.Service
	tokens   persist.TokenStore
	notifier notify.Notifier
	logger   *log.Logger

	mu      sync.Mutex
	user    *core.User
	token   string
	gen     uint64
	loading bool
	subs    []func(*core.User)

	restoreOnce sync.Once
}

func New(authSvc auth.Service, tokens persist.TokenStore, notifier notify.Notifier, logger *log.Logger) *Store {
	return &Store{
		auth:     authSvc,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentSession),
		loading:  true,
	}
}

// Loading reports whether the one-time silent restoration is still pending.
// Until it returns false a "no identity" answer cannot be trusted.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// CurrentUser returns a copy of the current identity, or nil.
func (s *Store) CurrentUser() *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the current credential token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Subscribe registers an identity-change listener. Listeners receive nil
// when the identity is cleared.
func (s *Store) Subscribe(fn func(*core.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Restore attempts silent session restoration from the persisted token.
// It runs once per process lifetime; the loading flag drops when it
// completes, success or not. A token the verifier rejects is discarded.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()

		token, err := s.tokens.LoadToken()
		if err != nil {
			s.logger.Warn("Failed to load persisted token", log.FieldError, err)
			return
		}
		if token == "" {
			return
		}

		u, err := s.auth.Verify(ctx, token)
		if err != nil {
			s.logger.Info("Discarding rejected session token", log.FieldError, err)
			if clearErr := s.tokens.ClearToken(); clearErr != nil {
				s.logger.Warn("Failed to clear rejected token", log.FieldError, clearErr)
			}
			return
		}

		s.mu.Lock()
		s.user = &u
		s.token = token
		s.gen++
		s.mu.Unlock()

		s.logger.Info("Session restored", log.FieldUserID, u.ID, log.FieldEmail, u.Email)
		s.publish(&u)
	})
}

// Register creates a new identity. On success the credential token is
// persisted, the identity becomes current, and subscribers are notified.
func (s *Store) Register(ctx context.Context, email, name, password string) (core.User, error) {
	if err := validateRegistration(email, name, password); err != nil {
		notify.Error(s.notifier, "Registration failed", err.Error())
		return core.User{}, err
	}

	gen := s.generation()
	creds, err := s.auth.Register(ctx, email, name, password)
	if err != nil {
		notify.Error(s.notifier, "Registration failed", err.Error())
		return core.User{}, err
	}

	if !s.apply(gen, creds) {
		s.logger.Warn("Discarding registration applied after identity change", log.FieldEmail, email)
		return core.User{}, core.NewAuthError("session changed while registering")
	}

	s.logger.Info("User registered", log.FieldUserID, creds.User.ID, log.FieldEmail, creds.User.Email)
	notify.Success(s.notifier, "Registration successful", fmt.Sprintf("Welcome, %s!", creds.User.Name))
	s.publish(&creds.User)
	return creds.User, nil
}

// Login authenticates an existing identity; effects mirror Register.
func (s *Store) Login(ctx context.Context, email, password string) (core.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		err := core.NewValidationError("email and password are required")
		notify.Error(s.notifier, "Login failed", err.Error())
		return core.User{}, err
	}

	gen := s.generation()
	creds, err := s.auth.Login(ctx, email, password)
	if err != nil {
		notify.Error(s.notifier, "Login failed", err.Error())
		return core.User{}, err
	}

	if !s.apply(gen, creds) {
		s.logger.Warn("Discarding login applied after identity change", log.FieldEmail, email)
		return core.User{}, core.NewAuthError("session changed while logging in")
	}

	s.logger.Info("User logged in", log.FieldUserID, creds.User.ID, log.FieldEmail, creds.User.Email)
	notify.Success(s.notifier, "Logged in successfully", fmt.Sprintf("Welcome back, %s!", creds.User.Name))
	s.publish(&creds.User)
	return creds.User, nil
}

// Logout clears the current identity and token. It always succeeds.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.gen++
	s.mu.Unlock()

	if err := s.tokens.ClearToken(); err != nil {
		s.logger.Warn("Failed to clear persisted token", log.FieldError, err)
	}

	s.logger.Info("User logged out")
	notify.Success(s.notifier, "Logged out", "You have been logged out successfully")
	s.publish(nil)
}

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// apply installs credentials obtained from an in-flight call, unless the
// identity changed since the call started. Calls cannot be cancelled
// mid-flight, so late responses against a newer identity are discarded.
func (s *Store) apply(gen uint64, creds auth.Credentials) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return false
	}
	s.user = &creds.User
	s.token = creds.Token
	s.gen++
	s.mu.Unlock()

	if err := s.tokens.SaveToken(creds.Token); err != nil {
		s.logger.Warn("Failed to persist session token", log.FieldError, err)
	}
	return true
}

func (s *Store) publish(u *core.User) {
	s.mu.Lock()
	subs := append(([]func(*core.User))(nil), s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		var copied *core.User
		if u != nil {
			c := *u
			copied = &c
		}
		fn(copied)
	}
}

func validateRegistration(email, name, password string) error {
	if strings.TrimSpace(email) == "" {
		return core.NewValidationError("email cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return core.NewValidationError("name cannot be empty")
	}
	if password == "" {
		return core.NewValidationError("password cannot be empty")
	}
	return nil
}
