// Package auth issues and verifies the server's credentials: HS256 access
// tokens, opaque refresh tokens and bcrypt password hashes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gridconsole/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the value of the typ claim on access tokens.
const TokenTypeAccess = "access"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are the registered claims plus the token type and role. Subject
// carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Type     string `json:"typ"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// GenerateAccessToken signs an access token for userID valid until
// now+validityDuration.
func GenerateAccessToken(userID, username, role string, secretKey []byte, now time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Type:     TokenTypeAccess,
		Username: username,
		Role:     role,
	})

	return token.SignedString(secretKey)
}

// ParseAccessToken verifies tokenString as of now and returns its claims. An
// expired but otherwise well-formed token yields ErrTokenExpired; anything
// else that fails verification yields ErrTokenInvalid.
func ParseAccessToken(tokenString string, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.Type != TokenTypeAccess || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// GenerateRefreshToken returns a random opaque refresh token.
func GenerateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}
