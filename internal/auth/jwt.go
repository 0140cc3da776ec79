package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles carried in the token's role claim.
const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
)

var (
	// ErrUnauthenticated covers missing, malformed, badly signed and expired tokens.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden means the token is valid but carries the wrong role.
	ErrForbidden = errors.New("forbidden")
)

// Claims represents the JWT payload.
type Claims struct {
	UserID      int64  `json:"id"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens. Verification is
// self-contained: it never consults the store.
type Tokens struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token issuer/verifier.
func NewTokens(key, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token binding the user id, role and display name.
func (t *Tokens) Issue(userID int64, role, displayName string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		UserID:      userID,
		Role:        role,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a token and returns its claims.
func (t *Tokens) Parse(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return Claims{}, ErrUnauthenticated
	}
	return *claims, nil
}

// Authorize parses the token and, when requiredRole is non-empty, checks
// the role claim against it.
func (t *Tokens) Authorize(tokenStr, requiredRole string) (Claims, error) {
	claims, err := t.Parse(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if requiredRole != "" && claims.Role != requiredRole {
		return Claims{}, ErrForbidden
	}
	return claims, nil
}
