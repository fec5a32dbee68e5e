package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakepredict/quakepredict-go/internal/conf"
)

func testTokenManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(&conf.SecuritySettings{
		JWTSecret:   "test-secret-not-for-production",
		TokenExpiry: 30,
	})
	require.NoError(t, err)
	return tm
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager(&conf.SecuritySettings{})
	require.Error(t, err)
}

func TestNewTokenManagerDefaultsExpiry(t *testing.T) {
	t.Parallel()

	tm, err := NewTokenManager(&conf.SecuritySettings{JWTSecret: "s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, tm.TokenExpiry())
}

func TestIssueAndValidateToken(t *testing.T) {
	t.Parallel()

	tm := testTokenManager(t)

	token, err := tm.IssueToken("ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", subject)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	tm := testTokenManager(t)
	other, err := NewTokenManager(&conf.SecuritySettings{JWTSecret: "different", TokenExpiry: 30})
	require.NoError(t, err)

	token, err := tm.IssueToken("ana@example.com")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	tm := testTokenManager(t)

	_, err := tm.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, VerifyPassword(hash, "correct horse battery staple"))

	err = VerifyPassword(hash, "wrong password")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPasswordSalts(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("password")
	require.NoError(t, err)
	second, err := HashPassword("password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
