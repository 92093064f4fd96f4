package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost balances hashing strength against login latency. Each
	// request hashes on its own goroutine, so the cost does not stall
	// other in-flight requests.
	BcryptCost = 12

	// TwoFactorCodeCost is deliberately lower: the codes are short-lived,
	// single-use, and rate limited at the HTTP boundary.
	TwoFactorCodeCost = 6
)

// HashPassword returns a bcrypt hash of the plaintext password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword reports a nil error when password matches hashedPassword.
// bcrypt's comparison is constant time over the derived key.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// dummyPasswordHash is a real cost-BcryptCost hash of an unguessable value.
// It exists so credential checks can burn a full comparison when there is no
// stored hash to compare against.
var dummyPasswordHash = func() string {
	hash, err := HashPassword("timing-equalization-dummy-value")
	if err != nil {
		panic(err)
	}
	return hash
}()

// CompareDummyPassword runs a bcrypt comparison that always fails. Credential
// stores call it on the unknown-email path so that "user not found" and
// "password mismatch" take the same time as observed by a caller.
func CompareDummyPassword(password string) {
	_ = ComparePassword(dummyPasswordHash, password)
}

// HashTwoFactorCode returns a bcrypt hash of a one-time code.
func HashTwoFactorCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("code cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), TwoFactorCodeCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareTwoFactorCode reports a nil error when code matches hashedCode.
func CompareTwoFactorCode(hashedCode, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(code))
}
