package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail_Valid(t *testing.T) {
	tests := []string{
		"user@example.com",
		"a@b",
		"first.last+tag@sub.example.co.uk",
		"UPPER@EXAMPLE.COM",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			email, err := ParseEmail(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, email.String())
			assert.False(t, email.IsZero())
		})
	}
}

func TestParseEmail_Invalid(t *testing.T) {
	tests := []string{
		"",
		"no-at-sign",
		"user.example.com",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseEmail(raw)
			assert.ErrorIs(t, err, ErrInvalidEmail)
		})
	}
}

func TestEmail_Comparable(t *testing.T) {
	a, err := ParseEmail("user@example.com")
	require.NoError(t, err)
	b, err := ParseEmail("user@example.com")
	require.NoError(t, err)
	c, err := ParseEmail("User@example.com")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	// Equality is case-sensitive over the validated string
	assert.NotEqual(t, a, c)

	// Usable as a map key
	m := map[Email]int{a: 1}
	m[c] = 2
	assert.Len(t, m, 2)
	assert.Equal(t, 1, m[b])
}
