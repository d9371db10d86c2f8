package security

import "testing"

func TestMenuBinding_RoundTrip(t *testing.T) {
	token, err := EncryptMenuBinding("secret", "SYSCOMMI", 42)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	programCode, menuID, err := DecryptMenuBinding("secret", token)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if programCode != "SYSCOMMI" {
		t.Fatalf("expected program code %q, got %q", "SYSCOMMI", programCode)
	}
	if menuID != 42 {
		t.Fatalf("expected menu id 42, got %d", menuID)
	}
}

func TestDecryptMenuBinding_WrongSecret(t *testing.T) {
	token, err := EncryptMenuBinding("secret", "SYSCOMMI", 42)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, _, errDecrypt := DecryptMenuBinding("other", token); errDecrypt == nil {
		t.Fatalf("expected decrypt under wrong secret to fail")
	}
}

func TestDecryptMenuBinding_Malformed(t *testing.T) {
	cases := []string{"", "!!!", "c2hvcnQ", "AAAA"}
	for _, raw := range cases {
		if _, _, errDecrypt := DecryptMenuBinding("secret", raw); errDecrypt == nil {
			t.Fatalf("expected malformed token %q to fail", raw)
		}
	}
}

func TestMenuBinding_TokensDiffer(t *testing.T) {
	first, err := EncryptMenuBinding("secret", "SYSCOMMI", 42)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := EncryptMenuBinding("secret", "SYSCOMMI", 42)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatalf("expected fresh nonce per token")
	}
}
