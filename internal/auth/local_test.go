package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
)

// memUsers is an in-memory user store for tests.
type memUsers struct {
	users  []core.User
	hashes map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{hashes: make(map[string]string)}
}

func (m *memUsers) CreateUser(_ context.Context, u core.User, passwordHash string) error {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.NewValidationError("user with this email already exists")
		}
	}
	m.users = append(m.users, u)
	m.hashes[u.ID] = passwordHash
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (core.User, string, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, m.hashes[u.ID], nil
		}
	}
	return core.User{}, "", core.NewNotFoundError("user", email)
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (core.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.NewNotFoundError("user", id)
}

func newLocal(users *memUsers) *LocalService {
	return NewLocalService(users, []byte("test-secret"), time.Hour)
}

func TestRegisterLoginVerify(t *testing.T) {
	svc := newLocal(newMemUsers())
	ctx := context.Background()

	creds, err := svc.Register(ctx, "ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if creds.User.ID == "" || creds.Token == "" {
		t.Fatalf("incomplete credentials: %+v", creds)
	}

	login, err := svc.Login(ctx, "ada@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != creds.User.ID {
		t.Fatalf("login resolved a different user")
	}

	verified, err := svc.Verify(ctx, login.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.ID != creds.User.ID || verified.Email != "ada@example.com" {
		t.Fatalf("verify resolved %+v", verified)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newLocal(newMemUsers())
	ctx := context.Background()

	cases := []struct {
		name               string
		email, uname, pass string
	}{
		{"missing at sign", "not-an-email", "Ada", "hunter2"},
		{"empty email", "", "Ada", "hunter2"},
		{"empty name", "a@b.c", "", "hunter2"},
		{"short password", "a@b.c", "Ada", "12345"},
	}
	for _, tc := range cases {
		_, err := svc.Register(ctx, tc.email, tc.uname, tc.pass)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !core.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %T", tc.name, err)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newLocal(newMemUsers())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "ADA@example.com", "Other", "hunter2")
	if err == nil || !core.IsValidation(err) {
		t.Fatalf("duplicate email should fail validation, got %v", err)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	svc := newLocal(newMemUsers())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ada@example.com", "Ada", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown user produce the same message, so a caller
	// cannot probe which emails exist.
	_, wrongPass := svc.Login(ctx, "ada@example.com", "wrong")
	_, unknown := svc.Login(ctx, "ghost@example.com", "hunter2")

	if wrongPass == nil || unknown == nil {
		t.Fatalf("both logins should fail")
	}
	if !core.IsAuth(wrongPass) || !core.IsAuth(unknown) {
		t.Fatalf("expected auth errors, got %T / %T", wrongPass, unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("error messages differ: %q vs %q", wrongPass, unknown)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newLocal(newMemUsers())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.Verify(context.Background(), token); err == nil || !core.IsAuth(err) {
			t.Fatalf("token %q should be rejected with an auth error, got %v", token, err)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	users := newMemUsers()
	expired := NewLocalService(users, []byte("test-secret"), -time.Minute)

	creds, err := expired.Register(context.Background(), "ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := expired.Verify(context.Background(), creds.Token); err == nil || !core.IsAuth(err) {
		t.Fatalf("expired token should be rejected, got %v", err)
	}
}

func TestVerifyDeletedSubject(t *testing.T) {
	users := newMemUsers()
	svc := newLocal(users)

	creds, err := svc.Register(context.Background(), "ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	users.users = nil

	if _, err := svc.Verify(context.Background(), creds.Token); err == nil || !core.IsAuth(err) {
		t.Fatalf("token for a deleted user should be rejected, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	users := newMemUsers()
	signer := newLocal(users)
	verifier := NewLocalService(users, []byte("different-secret"), time.Hour)

	creds, err := signer.Register(context.Background(), "ada@example.com", "Ada", "hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := verifier.Verify(context.Background(), creds.Token); err == nil || !core.IsAuth(err) {
		t.Fatalf("token signed with another secret should be rejected, got %v", err)
	}
}
