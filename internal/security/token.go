package security

import (
	"crypto/sha256"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indicates a malformed, tampered, or expired session token.
var ErrInvalidToken = errors.New("security: invalid token")

// Identity is the set of claims carried inside a session token. It is
// immutable once issued; a new login issues a new one.
type Identity struct {
	PNO        string // Account id.
	Name       string // Display name.
	Department string // Department code.
	SuperUser  bool   // Superuser flag.
}

// sessionClaims is the JWT payload for a session token.
type sessionClaims struct {
	jwt.RegisteredClaims
	PNO        string `json:"pno"`
	Name       string `json:"name"`
	Department string `json:"dept"`
	SuperUser  bool   `json:"su"`
}

// signingKey derives the HMAC key from the configured secret. Hashing the
// secret keeps key rotation a matter of rotating the secret itself.
func signingKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// IssueSessionToken signs a session token carrying the identity claims.
func IssueSessionToken(secret string, identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		PNO:        identity.PNO,
		Name:       identity.Name,
		Department: identity.Department,
		SuperUser:  identity.SuperUser,
	})
	return token.SignedString(signingKey(secret))
}

// ParseSessionToken decodes and validates a session token. Decoding fails
// closed: malformed structure, signature mismatch, or expiry all yield
// ErrInvalidToken, never a partial identity.
func ParseSessionToken(secret, tokenString string) (Identity, error) {
	claims := &sessionClaims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return signingKey(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errParse != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.PNO) == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		PNO:        claims.PNO,
		Name:       claims.Name,
		Department: claims.Department,
		SuperUser:  claims.SuperUser,
	}, nil
}
