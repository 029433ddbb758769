// internal/auth/password.go
//
// Password hashing for stored accounts (bcrypt, cost 10) and username
// normalisation shared by registration and login.

package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 3

// bcryptMaxBytes is the longest input bcrypt reads. Longer passwords are
// truncated to it, so hashing and checking always agree.
const bcryptMaxBytes = 72

// HashPassword is a bcrypt hasher (cost 10).
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(passwordBytes(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword is a bcrypt verifier.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(pw)) == nil
}

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func passwordBytes(pw string) []byte {
	b := []byte(pw)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
