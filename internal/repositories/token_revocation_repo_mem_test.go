package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashmapTokenRevocationStore_RevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	store := NewHashmapTokenRevocationStore()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Idempotent
	assert.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
}

func TestHashmapTokenRevocationStore_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewHashmapTokenRevocationStore()

	require.NoError(t, store.Revoke(ctx, "expired", time.Now().Add(-time.Minute)))
	require.NoError(t, store.Revoke(ctx, "live", time.Now().Add(time.Hour)))

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	revoked, err := store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}
