package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned by UserFinder implementations.
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the stored identity a login is checked against.
type Account struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	DisplayName  string `db:"display_name"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
}

// UserFinder looks accounts up by their unique handle.
type UserFinder interface {
	UserByUsername(ctx context.Context, username string) (Account, error)
}

// Login is the result of a successful authentication.
type Login struct {
	Token       string
	ExpiresAt   time.Time
	UserID      int64
	Role        string
	DisplayName string
	Username    string
}

// Verifier checks credentials and issues tokens.
type Verifier struct {
	users  UserFinder
	tokens *Tokens
}

// NewVerifier creates a verifier backed by a user lookup.
func NewVerifier(users UserFinder, tokens *Tokens) *Verifier {
	return &Verifier{users: users, tokens: tokens}
}

// Authenticate validates username and password and issues a token.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (Login, error) {
	acct, err := v.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return Login{}, ErrInvalidCredentials
		}
		return Login{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(acct.PasswordHash, password) {
		return Login{}, ErrInvalidCredentials
	}

	token, exp, err := v.tokens.Issue(acct.ID, acct.Role, acct.DisplayName)
	if err != nil {
		return Login{}, err
	}
	return Login{
		Token:       token,
		ExpiresAt:   exp,
		UserID:      acct.ID,
		Role:        acct.Role,
		DisplayName: acct.DisplayName,
		Username:    acct.Username,
	}, nil
}

// Authorize verifies a bearer token without touching the store.
func (v *Verifier) Authorize(token, requiredRole string) (Claims, error) {
	return v.tokens.Authorize(token, requiredRole)
}
