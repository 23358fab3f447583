package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var dummyHash []byte

func init() {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy_password_for_timing"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: failed to generate dummy hash: %v", err))
	}
	dummyHash = hash
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// verifyPassword compares password against hash. An empty hash is checked
// against a dummy so unknown accounts cost the same as wrong passwords.
func verifyPassword(password, hash string) bool {
	target := dummyHash
	if hash != "" {
		target = []byte(hash)
	}

	err := bcrypt.CompareHashAndPassword(target, []byte(password))
	return hash != "" && err == nil
}

func equalSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
