package repositories

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateTwoFactorCode returns a random 6-digit numeric code, zero padded.
func generateTwoFactorCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate two-factor code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
