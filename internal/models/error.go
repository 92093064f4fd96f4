package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Value object parse errors
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// Credential store errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Second-factor store errors
	ErrNoPendingChallenge     = errors.New("no pending two-factor challenge")
	ErrLoginAttemptIDMismatch = errors.New("login attempt id does not match")
	ErrTwoFactorCodeMismatch  = errors.New("two-factor code does not match")

	// Boundary errors surfaced by the auth service. ErrIncorrectCredentials
	// merges "user not found" and "password mismatch" so responses never leak
	// account existence. ErrSecondFactorRejected merges the three
	// second-factor store errors the same way.
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrSecondFactorRejected = errors.New("second factor rejected")
	ErrMissingToken         = errors.New("missing token")
	ErrInvalidToken         = errors.New("invalid token")
)
