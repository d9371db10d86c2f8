package security

import "testing"

func TestHashPassword_DeterministicPerSalt(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}

	first, err := HashPassword("secret99", salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("secret99", salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical digests for identical inputs, got %q and %q", first, second)
	}
}

func TestHashPassword_DifferentSaltsDiffer(t *testing.T) {
	saltA, err := NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}
	saltB, err := NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}
	if saltA == saltB {
		t.Fatalf("expected distinct salts")
	}

	hashA, err := HashPassword("secret99", saltA)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hashB, err := HashPassword("secret99", saltB)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hashA == hashB {
		t.Fatalf("expected different digests under different salts")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt, err := NewSalt()
	if err != nil {
		t.Fatalf("new salt: %v", err)
	}
	hash, err := HashPassword("secret99", salt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !VerifyPassword("secret99", salt, hash) {
		t.Fatalf("expected matching secret to verify")
	}
	if VerifyPassword("secret98", salt, hash) {
		t.Fatalf("expected mismatching secret to fail")
	}
	if VerifyPassword("secret99", "not-hex", hash) {
		t.Fatalf("expected malformed salt to fail closed")
	}
}
