package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"supplier-chat/internal/auth"
)

var (
	// ErrNoSession means no token is available for the current user.
	ErrNoSession = errors.New("no token found in session")
	// ErrTokenExpired means the stored token carries an expiry in the past.
	ErrTokenExpired = errors.New("session token expired")
)

// Provider supplies the current user's session token.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f ProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Static serves a fixed token.
type Static struct {
	token string
}

// NewStatic returns a provider for token.
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the configured token once it passes validation.
func (s *Static) Token(ctx context.Context) (string, error) {
	return validate(s.token)
}

// File reads the token from a session file on every call, so a token
// refreshed on disk is picked up by the next connection attempt.
type File struct {
	path string
}

// NewFile returns a provider reading from path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Token reads and validates the token stored in the session file.
func (f *File) Token(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session file: %w", err)
	}
	return validate(string(data))
}

// New picks a provider: an explicit token wins over a session file.
func New(token, path string) (Provider, error) {
	switch {
	case token != "":
		return NewStatic(token), nil
	case path != "":
		return NewFile(path), nil
	default:
		return nil, ErrNoSession
	}
}

// UserID returns the user id carried by a session token.
func UserID(token string) (int64, error) {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return 0, err
	}
	if claims.UserID == 0 {
		return 0, fmt.Errorf("%w: missing user_id claim", auth.ErrInvalidToken)
	}
	return claims.UserID, nil
}

// validate rejects empty tokens and JWTs whose expiry has passed.
// Opaque tokens are passed through for the server to judge.
func validate(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", ErrNoSession
	}
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return token, nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return "", ErrTokenExpired
	}
	return token, nil
}
