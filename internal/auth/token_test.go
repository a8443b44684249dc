package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{
		Sub:   "u1",
		Email: "amira@example.com",
		Admin: true,
		JTI:   "jti-1",
		Exp:   time.Now().Add(time.Hour).Unix(),
	}

	token, err := IssueToken(secret, claims)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Email != claims.Email || !parsed.Admin {
		t.Errorf("claims round-trip mismatch: %+v", parsed)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("secret-a"), Claims{Sub: "u1", JTI: "j", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken([]byte("secret-b"), token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken([]byte("s"), Claims{Sub: "u1", JTI: "j", Exp: time.Now().Add(-time.Minute).Unix()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ParseToken([]byte("s"), token); err != ErrExpiredToken {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "abc", "a.b.c", "!!!.???"} {
		if _, err := ParseToken([]byte("s"), token); err != ErrInvalidToken {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}
