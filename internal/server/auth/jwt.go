// Package auth implements the credential primitives of the service: signed
// bearer tokens and one-way password hashing.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskkeeper/internal/common"
)

// Claims carries the standard registered claims plus the user id the token
// was issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// GenerateToken signs an HS256 token for userID. A zero validity omits the
// expiry claim, so the token stays valid until it is revoked from the user's
// session list. The jti claim makes every issued token unique; iat alone has
// second granularity, so back-to-back logins would otherwise collide on the
// sessions primary key.
func GenerateToken(userID string, secretKey []byte, validity time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
	}
	if validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(validity))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies the token signature and returns the embedded
// user id. Expired or malformed tokens yield common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrInvalidToken
		}
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
