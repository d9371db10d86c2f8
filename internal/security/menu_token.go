package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Menu-binding tokens assert that the UI's displayed menu context matches
// the controller being invoked. They carry no authority beyond that
// binding check.

// menuBindingKey derives a key distinct from the session signing key.
func menuBindingKey(secret string) []byte {
	sum := sha256.Sum256([]byte("menu-binding:" + secret))
	return sum[:]
}

// EncryptMenuBinding seals "{programCode}:{menuID}" into an opaque token.
func EncryptMenuBinding(secret, programCode string, menuID uint64) (string, error) {
	block, errCipher := aes.NewCipher(menuBindingKey(secret))
	if errCipher != nil {
		return "", fmt.Errorf("security: menu binding cipher: %w", errCipher)
	}
	gcm, errGCM := cipher.NewGCM(block)
	if errGCM != nil {
		return "", fmt.Errorf("security: menu binding gcm: %w", errGCM)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, errRead := rand.Read(nonce); errRead != nil {
		return "", fmt.Errorf("security: menu binding nonce: %w", errRead)
	}
	plaintext := fmt.Sprintf("%s:%d", programCode, menuID)
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptMenuBinding opens a menu-binding token and parses its two
// colon-separated fields. Any decryption or parse failure yields an error;
// the caller decides whether to degrade or reject.
func DecryptMenuBinding(secret, token string) (programCode string, menuID uint64, err error) {
	raw, errDecode := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if errDecode != nil {
		return "", 0, fmt.Errorf("security: menu binding decode: %w", errDecode)
	}
	block, errCipher := aes.NewCipher(menuBindingKey(secret))
	if errCipher != nil {
		return "", 0, fmt.Errorf("security: menu binding cipher: %w", errCipher)
	}
	gcm, errGCM := cipher.NewGCM(block)
	if errGCM != nil {
		return "", 0, fmt.Errorf("security: menu binding gcm: %w", errGCM)
	}
	if len(raw) < gcm.NonceSize() {
		return "", 0, fmt.Errorf("security: menu binding too short")
	}
	plaintext, errOpen := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if errOpen != nil {
		return "", 0, fmt.Errorf("security: menu binding open: %w", errOpen)
	}
	parts := strings.Split(string(plaintext), ":")
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("security: menu binding format")
	}
	id, errParse := strconv.ParseUint(parts[1], 10, 64)
	if errParse != nil {
		return "", 0, fmt.Errorf("security: menu binding id: %w", errParse)
	}
	if strings.TrimSpace(parts[0]) == "" {
		return "", 0, fmt.Errorf("security: menu binding program code")
	}
	return parts[0], id, nil
}
