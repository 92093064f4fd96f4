package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/aegisauth/aegis/internal/models"
	pkgauth "github.com/aegisauth/aegis/pkg/auth"
)

// HashmapUserStore keeps users in an in-process map. Reads share a lock;
// writes are exclusive. Suitable for development and tests.
type HashmapUserStore struct {
	mu    sync.RWMutex
	users map[models.Email]models.User
}

func NewHashmapUserStore() *HashmapUserStore {
	return &HashmapUserStore{users: make(map[models.Email]models.User)}
}

func (s *HashmapUserStore) Add(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return models.ErrConflict
	}

	stored := *user
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.users[user.Email] = stored
	return nil
}

func (s *HashmapUserStore) GetByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &user, nil
}

func (s *HashmapUserStore) ValidateCredentials(ctx context.Context, email models.Email, password models.Password) error {
	s.mu.RLock()
	user, ok := s.users[email]
	s.mu.RUnlock()

	if !ok {
		// Burn a comparison so an unknown email takes as long as a
		// wrong password.
		pkgauth.CompareDummyPassword(password.Reveal())
		return models.ErrNotFound
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password.Reveal()); err != nil {
		return models.ErrInvalidCredentials
	}
	return nil
}
