package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/models"
)

// Claims defines the JWT claims structure. The token ID (jti) is the
// session id, so revoking the session revokes the token.
type Claims struct {
	AccountID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer struct {
	key   []byte
	clock clock.Clock
}

// NewTokenIssuer creates a TokenIssuer using HS256 with secret.
func NewTokenIssuer(secret string, clk clock.Clock) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), clock: clk}
}

// Issue creates a JWT for a session.
func (t *TokenIssuer) Issue(sess models.Session) (string, error) {
	claims := &Claims{
		AccountID: sess.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// Parse validates a JWT string and returns its claims.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.clock.Now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
