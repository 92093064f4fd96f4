package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	// Hashing is salted: two hashes of the same input differ
	hash2, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestComparePassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "password123"))
	assert.Error(t, ComparePassword(hash, "password124"))
	assert.Error(t, ComparePassword(hash, ""))
	assert.Error(t, ComparePassword("not-a-bcrypt-hash", "password123"))
}

func TestTwoFactorCodeHashing(t *testing.T) {
	hash, err := HashTwoFactorCode("123456")
	require.NoError(t, err)

	assert.NoError(t, CompareTwoFactorCode(hash, "123456"))
	assert.Error(t, CompareTwoFactorCode(hash, "654321"))

	_, err = HashTwoFactorCode("")
	assert.Error(t, err)
}
