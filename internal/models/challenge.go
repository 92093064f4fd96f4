package models

import "time"

// TwoFactorChallenge is a pending second-factor challenge. At most one exists
// per email; issuing a new one silently supersedes any prior challenge for
// that address. CodeHash holds a bcrypt hash of the 6-digit code.
type TwoFactorChallenge struct {
	Email          Email
	LoginAttemptID string
	CodeHash       string
	ExpiresAt      time.Time
}

// Expired reports whether the challenge can no longer be verified.
func (c *TwoFactorChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
