package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	identity := Identity{PNO: "AB1234", Name: "Alex", Department: "OPS", SuperUser: false}

	token, err := IssueSessionToken("secret", identity, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parsed, err := ParseSessionToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != identity {
		t.Fatalf("expected identity %+v, got %+v", identity, parsed)
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	token, err := IssueSessionToken("secret", Identity{PNO: "AB1234"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseSessionToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	token, err := IssueSessionToken("secret", Identity{PNO: "AB1234"}, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseSessionToken("secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errParse)
	}
}

func TestParseSessionToken_Garbage(t *testing.T) {
	if _, errParse := ParseSessionToken("secret", "not.a.token"); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
	if _, errParse := ParseSessionToken("secret", ""); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", errParse)
	}
}

func TestParseSessionToken_EmptyPNO(t *testing.T) {
	token, err := IssueSessionToken("secret", Identity{PNO: ""}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseSessionToken("secret", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty pno claim, got %v", errParse)
	}
}
