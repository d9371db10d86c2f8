package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes       = 16
	hashBytes       = 32
	pbkdf2Iteration = 120000
)

// NewSalt returns a fresh random salt encoded as hex.
func NewSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, errRead := rand.Read(buf); errRead != nil {
		return "", fmt.Errorf("security: generate salt: %w", errRead)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives a 256-bit digest of the secret with the given hex
// salt. The derivation is deterministic for identical inputs so historical
// hashes can be checked by re-hashing a candidate with the stored salt.
func HashPassword(secret, saltHex string) (string, error) {
	salt, errDecode := hex.DecodeString(saltHex)
	if errDecode != nil {
		return "", fmt.Errorf("security: decode salt: %w", errDecode)
	}
	digest := pbkdf2.Key([]byte(secret), salt, pbkdf2Iteration, hashBytes, sha256.New)
	return hex.EncodeToString(digest), nil
}

// VerifyPassword reports whether the secret matches the stored hash under
// the stored salt. The digest comparison is constant-time.
func VerifyPassword(secret, saltHex, hashHex string) bool {
	computed, errHash := HashPassword(secret, saltHex)
	if errHash != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hashHex)) == 1
}
