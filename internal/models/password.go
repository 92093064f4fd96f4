package models

import "log/slog"

// MinPasswordLen is the minimum accepted plaintext password length.
const MinPasswordLen = 8

// Password wraps plaintext secret material. Its default textual
// representations are redacted so a Password can never leak through
// fmt or slog by accident; the one call site that hashes or verifies
// the plaintext must use Reveal.
type Password struct {
	plaintext string
}

// ParsePassword validates raw and returns it as a Password.
func ParsePassword(raw string) (Password, error) {
	if len(raw) < MinPasswordLen {
		return Password{}, ErrPasswordTooShort
	}
	return Password{plaintext: raw}, nil
}

// Reveal returns the plaintext for hashing or verification.
func (p Password) Reveal() string {
	return p.plaintext
}

func (p Password) String() string {
	return "[REDACTED]"
}

func (p Password) GoString() string {
	return "models.Password{[REDACTED]}"
}

// LogValue implements slog.LogValuer.
func (p Password) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}
