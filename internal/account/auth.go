// Package account manages users, their credentials and login sessions.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/akshar/internal/platform/apperr"
)

const (
	minPasswordLength = 8
	maxNameLength     = 64
)

var (
	ErrNameTaken      error = &apperr.Rejection{Message: "That name is already taken"}
	ErrBadCredentials error = &apperr.Rejection{Message: "Unknown name or wrong password"}
	ErrNotFound       error = &apperr.Rejection{Message: "Could not find session user"}
)

// Authenticator registers users and checks their credentials.
type Authenticator struct {
	store Store
	cost  int

	// dummyHash is compared against when the name is unknown, so a miss
	// costs as much as a wrong password.
	dummyHash []byte
}

// NewAuthenticator creates an Authenticator hashing with the given bcrypt
// cost. A zero cost uses bcrypt.DefaultCost.
func NewAuthenticator(store Store, cost int) (*Authenticator, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("akshar-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Authenticator{store: store, cost: cost, dummyHash: dummy}, nil
}

// Register creates a user with a hashed password.
func (a *Authenticator) Register(ctx context.Context, name, password string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, apperr.Reject("Please enter a name")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return User{}, apperr.Reject("Name must be at most %d characters", maxNameLength)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return User{}, apperr.Reject("Password must be at least %d characters", minPasswordLength)
	}
	// bcrypt ignores input past 72 bytes and errors on it in newer releases.
	if len(password) > 72 {
		return User{}, apperr.Reject("Password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return a.store.Create(ctx, name, string(hash))
}

// Login returns the user when name and password match. Every mismatch
// yields ErrBadCredentials.
func (a *Authenticator) Login(ctx context.Context, name, password string) (User, error) {
	u, err := a.store.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
			return User{}, ErrBadCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
