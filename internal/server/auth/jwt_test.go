package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateAccessToken("user-123", "admin", "admin", secret, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := ParseAccessToken(tok, secret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, "admin", claims.Username)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateAccessToken("u1", "", "", secret, time.Now().Add(-time.Hour), time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(tok, secret, time.Now())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAccessToken_UsesGivenTime(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	issued := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tok, err := GenerateAccessToken("u1", "", "", secret, issued, 15*time.Minute)
	require.NoError(t, err)

	_, err = ParseAccessToken(tok, secret, issued.Add(14*time.Minute))
	require.NoError(t, err)

	_, err = ParseAccessToken(tok, secret, issued.Add(16*time.Minute))
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseAccessToken_Invalid(t *testing.T) {
	t.Parallel()

	good, err := GenerateAccessToken("u2", "", "", []byte("right-secret"), time.Now(), time.Hour)
	require.NoError(t, err)

	wrongType, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Type: "refresh",
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	noSubject, err := GenerateAccessToken("", "", "", []byte("k"), time.Now(), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", good, "wrong-secret"},
		{"malformed", "not.a.jwt", "k"},
		{"empty", "", "k"},
		{"wrong type", wrongType, "k"},
		{"missing subject", noSubject, "k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.token, []byte(tt.secret), time.Now())
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
