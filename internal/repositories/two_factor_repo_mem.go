package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/aegisauth/aegis/internal/models"
	pkgauth "github.com/aegisauth/aegis/pkg/auth"
	"github.com/google/uuid"
)

// HashmapTwoFactorStore holds pending challenges in an in-process map.
// Verification runs under the exclusive lock, so observe-and-consume is
// atomic: two concurrent verifications can never both remove the same
// challenge.
type HashmapTwoFactorStore struct {
	mu         sync.RWMutex
	challenges map[models.Email]models.TwoFactorChallenge
	ttl        time.Duration
}

func NewHashmapTwoFactorStore(ttl time.Duration) *HashmapTwoFactorStore {
	return &HashmapTwoFactorStore{
		challenges: make(map[models.Email]models.TwoFactorChallenge),
		ttl:        ttl,
	}
}

func (s *HashmapTwoFactorStore) Issue(ctx context.Context, email models.Email) (string, string, error) {
	attemptID := uuid.New().String()

	code, err := generateTwoFactorCode()
	if err != nil {
		return "", "", err
	}

	codeHash, err := pkgauth.HashTwoFactorCode(code)
	if err != nil {
		return "", "", err
	}

	s.mu.Lock()
	// Overwrites any pending challenge for this email; the old pair is
	// invalid from this point on.
	s.challenges[email] = models.TwoFactorChallenge{
		Email:          email,
		LoginAttemptID: attemptID,
		CodeHash:       codeHash,
		ExpiresAt:      time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return attemptID, code, nil
}

func (s *HashmapTwoFactorStore) VerifyAndConsume(ctx context.Context, email models.Email, attemptID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[email]
	if !ok {
		return models.ErrNoPendingChallenge
	}

	if challenge.Expired(time.Now()) {
		delete(s.challenges, email)
		return models.ErrNoPendingChallenge
	}

	if challenge.LoginAttemptID != attemptID {
		return models.ErrLoginAttemptIDMismatch
	}

	if err := pkgauth.CompareTwoFactorCode(challenge.CodeHash, code); err != nil {
		return models.ErrTwoFactorCodeMismatch
	}

	delete(s.challenges, email)
	return nil
}

// CleanupExpired removes challenges whose expiry has passed.
func (s *HashmapTwoFactorStore) CleanupExpired(ctx context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for email, challenge := range s.challenges {
		if challenge.Expired(now) {
			delete(s.challenges, email)
			removed++
		}
	}
	return removed, nil
}
