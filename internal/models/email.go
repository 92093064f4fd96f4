package models

import "strings"

// Email is a validated email address. The zero value is not valid; construct
// one through ParseEmail. Emails compare case-sensitively and are usable as
// map keys.
type Email struct {
	address string
}

// ParseEmail validates raw and returns it as an Email. The only structural
// requirement is the presence of an '@' separator.
func ParseEmail(raw string) (Email, error) {
	if raw == "" || !strings.Contains(raw, "@") {
		return Email{}, ErrInvalidEmail
	}
	return Email{address: raw}, nil
}

func (e Email) String() string {
	return e.address
}

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool {
	return e.address == ""
}
