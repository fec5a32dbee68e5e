// Package security handles password hashing and access token management for
// the user-facing API.
package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/errors"
)

// ErrInvalidToken is returned for tokens that fail signature or claim
// validation.
var ErrInvalidToken = errors.NewStd("invalid access token")

// ErrInvalidCredentials is returned when a password does not match the stored
// hash. Callers should present it identically to an unknown account.
var ErrInvalidCredentials = errors.NewStd("invalid credentials")

// TokenManager issues and validates signed access tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a token manager from the security settings.
func NewTokenManager(settings *conf.SecuritySettings) (*TokenManager, error) {
	if settings.JWTSecret == "" {
		return nil, errors.Newf("JWT secret is not configured").
			Component("security").
			Category(errors.CategoryConfiguration).
			Build()
	}
	expiry := time.Duration(settings.TokenExpiry) * time.Minute
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &TokenManager{
		secret: []byte(settings.JWTSecret),
		expiry: expiry,
	}, nil
}

// IssueToken creates a signed token whose subject is the account email.
func (tm *TokenManager) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", errors.New(fmt.Errorf("signing access token: %w", err)).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return signed, nil
}

// ValidateToken verifies the token signature and expiry and returns the
// subject email.
func (tm *TokenManager) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New(fmt.Errorf("%w: %w", ErrInvalidToken, err)).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New(fmt.Errorf("%w: missing subject claim", ErrInvalidToken)).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return claims.Subject, nil
}

// TokenExpiry returns the configured access token lifetime.
func (tm *TokenManager) TokenExpiry() time.Duration {
	return tm.expiry
}

// HashPassword derives a bcrypt hash from a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.New(fmt.Errorf("hashing password: %w", err)).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a stored bcrypt hash and
// returns ErrInvalidCredentials on mismatch.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errors.New(ErrInvalidCredentials).
			Component("security").
			Category(errors.CategoryAuth).
			Build()
	}
	return nil
}
