package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tally/internal/core"
	"tally/internal/persist"
)

// LocalService authenticates against an embedded user store. Passwords are
// bcrypt-hashed; tokens are HS256 JWTs carrying the user id.
type LocalService struct {
	users  persist.UserStore
	secret []byte
	ttl    time.Duration
}

func NewLocalService(users persist.UserStore, secret []byte, ttl time.Duration) *LocalService {
	return &LocalService{users: users, secret: secret, ttl: ttl}
}

func (s *LocalService) Register(ctx context.Context, email, name, password string) (Credentials, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return Credentials{}, core.NewValidationError("invalid email address")
	}
	if name == "" {
		return Credentials{}, core.NewValidationError("name cannot be empty")
	}
	if len(password) < 6 {
		return Credentials{}, core.NewValidationError("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credentials{}, core.NewPersistenceError("hash password", err)
	}

	u := core.User{
		ID:    "user-" + uuid.NewString(),
		Email: email,
		Name:  name,
	}
	if err := s.users.CreateUser(ctx, u, string(hash)); err != nil {
		return Credentials{}, err
	}

	token, err := s.mintToken(u.ID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: u, Token: token}, nil
}

func (s *LocalService) Login(ctx context.Context, email, password string) (Credentials, error) {
	u, hash, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if core.IsNotFound(err) {
			return Credentials{}, core.NewAuthError("invalid email or password")
		}
		return Credentials{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Credentials{}, core.NewAuthError("invalid email or password")
	}

	token, err := s.mintToken(u.ID)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: u, Token: token}, nil
}

func (s *LocalService) Verify(ctx context.Context, token string) (core.User, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, core.NewAuthError("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return core.User{}, core.NewAuthError("invalid or expired token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return core.User{}, core.NewAuthError("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return core.User{}, core.NewAuthError("token missing subject")
	}

	u, err := s.users.GetUserByID(ctx, sub)
	if err != nil {
		if core.IsNotFound(err) {
			return core.User{}, core.NewAuthError("token subject no longer exists")
		}
		return core.User{}, err
	}
	return u, nil
}

func (s *LocalService) mintToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", core.NewPersistenceError("sign token", err)
	}
	return signed, nil
}
