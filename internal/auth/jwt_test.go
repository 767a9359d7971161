package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, exp, err := Issue(42, "user", "absensi", "secret", time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v not in the future", exp)
	}

	claims, err := Parse(token, "secret", "absensi")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
	if claims.Role != "user" {
		t.Errorf("role = %q, want user", claims.Role)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue(1, "user", "absensi", "secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "other", "absensi"); err == nil {
		t.Error("expected error for wrong key")
	}
}

func TestParseRejectsIssuerMismatch(t *testing.T) {
	token, _, err := Issue(1, "user", "someone-else", "secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "secret", "absensi"); err == nil {
		t.Error("expected error for issuer mismatch")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue(1, "user", "absensi", "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(token, "secret", "absensi"); err == nil {
		t.Error("expected error for expired token")
	}
}
