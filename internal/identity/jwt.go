// Package identity signs and verifies CLI session tokens. The token
// carries everything quota resolution needs so that commands do not
// look the caller up again.
package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/moroccanspectacle/Elysian-Vault-sub001/internal/common"
)

// Principal identifies the authenticated caller.
type Principal struct {
	UserID     string
	Role       string
	Department string
}

// Claims carries the principal inside the registered claim set.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string
	Role       string
	Department string
}

func GenerateToken(p Principal, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID:     p.UserID,
		Role:       p.Role,
		Department: p.Department,
	})

	return token.SignedString(secretKey)
}

func FromToken(tokenString string, secretKey []byte) (*Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &Principal{
		UserID:     claims.UserID,
		Role:       claims.Role,
		Department: claims.Department,
	}, nil
}
