package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Login tokens carry no purpose.
const (
	PurposePasswordReset = "password-reset"
)

// ResetTokenTTL is fixed by contract, not configuration.
const ResetTokenTTL = 30 * time.Minute

// ErrInvalidToken is returned for every validation failure: bad signature,
// malformed payload, expiry, or purpose mismatch. Callers must not be able
// to distinguish the cause.
var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	Sub     int64  `json:"sub"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// NewToken issues a signed token for the given subject. An empty purpose
// produces a login/verification token; a non-empty purpose restricts the
// token to operations expecting that exact purpose.
func NewToken(sub int64, purpose, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:     sub,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"contacts-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse verifies the signature and expiry and returns the embedded claims.
func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseWithPurpose additionally requires the embedded purpose to match
// expectedPurpose exactly. A token issued for one purpose is never accepted
// by an operation expecting another, including the empty purpose.
func ParseWithPurpose(tokenString, expectedPurpose, secret string) (*Claims, error) {
	claims, err := Parse(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != expectedPurpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
