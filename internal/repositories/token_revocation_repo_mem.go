package repositories

import (
	"context"
	"sync"
	"time"
)

// HashmapTokenRevocationStore keeps revoked JTIs in an in-process set.
// A revocation is visible to IsRevoked as soon as Revoke returns.
type HashmapTokenRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> token expiry
}

func NewHashmapTokenRevocationStore() *HashmapTokenRevocationStore {
	return &HashmapTokenRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *HashmapTokenRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

func (s *HashmapTokenRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *HashmapTokenRevocationStore) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for jti, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, jti)
			removed++
		}
	}
	return removed, nil
}
