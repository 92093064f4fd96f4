package models

import "time"

// User is an account record owned by the credential store. Users are created
// on signup and immutable afterwards; the email is the uniqueness key.
type User struct {
	Email             Email
	PasswordHash      string
	RequiresTwoFactor bool
	CreatedAt         time.Time
}
