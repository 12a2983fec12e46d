package auth

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for staff and portal passwords.
const PasswordCost = 12

// ResetTokenBytes is the entropy of a password reset token before encoding.
const ResetTokenBytes = 64

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches hash. It returns false for an empty
// or malformed hash and never panics.
func VerifyPassword(hash, password string) (ok bool) {
	if hash == "" {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewToken returns n random bytes encoded as unpadded base64url.
func NewToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewResetToken returns a fresh password reset token.
func NewResetToken() (string, error) { return NewToken(ResetTokenBytes) }
