package auth

import (
	"encoding/base64"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(h, "s3cret!") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(h, "wrong") {
		t.Fatalf("wrong password verified")
	}
}

func TestVerifyPasswordFailsClosed(t *testing.T) {
	for _, hash := range []string{"", "not-a-hash", "$2a$12$short"} {
		if VerifyPassword(hash, "anything") {
			t.Fatalf("hash %q must not verify", hash)
		}
	}
}

func TestNewResetToken(t *testing.T) {
	a, err := NewResetToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewResetToken()
	if a == b {
		t.Fatalf("tokens must differ")
	}
	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil || len(raw) != ResetTokenBytes {
		t.Fatalf("expected %d raw bytes, got %d (%v)", ResetTokenBytes, len(raw), err)
	}
}
