// Package auth is the session gate: a local, advisory login that decides who
// owns the projects being listed and edited. It is a navigation convenience
// over unencrypted local data, not a security boundary.
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fotoforge/internal/store"
	"fotoforge/pkg/logger"
)

// Gate reads and writes the user list and the current session pointer.
type Gate struct {
	store store.Store
	mu    sync.Mutex
}

func NewGate(s store.Store) *Gate {
	return &Gate{store: s}
}

// Current returns the logged-in session or ErrNotAuthenticated.
func (g *Gate) Current(ctx context.Context) (*Session, error) {
	var s Session
	if !store.GetInto(ctx, g.store, store.KeySession, &s) || !s.valid() {
		return nil, ErrNotAuthenticated
	}
	return &s, nil
}

// IsAuthenticated reports whether a session pointer with an email is stored.
func (g *Gate) IsAuthenticated(ctx context.Context) bool {
	_, err := g.Current(ctx)
	return err == nil
}

// Login checks the credentials against the user list and stores the session
// pointer. Empty fields fail validation without reading storage.
func (g *Gate) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if err := validate(email, password); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var found *User
	for _, u := range g.users(ctx) {
		if strings.EqualFold(u.Email, email) && u.checkPassword(password) {
			found = &u
			break
		}
	}
	if found == nil {
		return nil, ErrInvalidCredentials
	}

	s := &Session{Email: found.Email}
	if err := g.store.Set(ctx, store.KeySession, s); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	logger.LogSuccess("User %s logged in", s.Email)
	return s, nil
}

// Logout clears the session pointer.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Delete(ctx, store.KeySession); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Register adds a user with a hashed password.
func (g *Gate) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validate(email, password); err != nil {
		return err
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "must be an email address"}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	users := g.users(ctx)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return ErrUserExists
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users = append(users, User{Email: email, Password: hash})
	if err := g.store.Set(ctx, store.KeyUsers, users); err != nil {
		return fmt.Errorf("failed to store users: %w", err)
	}
	logger.LogInfo("Registered user %s", email)
	return nil
}

// UserCount is the number of registered accounts.
func (g *Gate) UserCount(ctx context.Context) int {
	return len(g.users(ctx))
}

func (g *Gate) users(ctx context.Context) []User {
	var users []User
	if !store.GetInto(ctx, g.store, store.KeyUsers, &users) {
		return nil
	}
	return users
}

func validate(email, password string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "is required"}
	}
	return nil
}
