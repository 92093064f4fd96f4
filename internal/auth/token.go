package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aegisauth/aegis/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token validation failure kinds, in the order they are checked.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenRevoked          = errors.New("token has been revoked")
)

// TokenRevocationStore is the revocation capability the manager consumes.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionClaims are the claims embedded in a session token. The subject is
// the authenticated email; ID is the token's JTI used for revocation.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Email returns the subject email the token was issued for.
func (c *SessionClaims) Email() string {
	return c.Subject
}

// TokenConfig holds process-wide token settings injected at startup.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenManager issues, validates, and revokes signed session tokens.
type TokenManager struct {
	secret      []byte
	ttl         time.Duration
	revocations TokenRevocationStore
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(cfg TokenConfig, revocations TokenRevocationStore) *TokenManager {
	return &TokenManager{
		secret:      []byte(cfg.Secret),
		ttl:         cfg.TTL,
		revocations: revocations,
	}
}

// Issue mints a session token for email, expiring after the fixed TTL.
func (tm *TokenManager) Issue(email models.Email) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a session token. The checks run in a fixed order:
// structure, signature, expiry, then revocation; the first failing check
// determines the returned error. The signature must verify before any
// embedded field is trusted, which is why revocation (keyed by the embedded
// JTI) comes last.
func (tm *TokenManager) Validate(ctx context.Context, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return tm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenMalformed
		}
	}

	if claims.ID == "" {
		return nil, ErrTokenMalformed
	}

	revoked, err := tm.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// Invalidate hands the token's JTI to the revocation store. The token only
// has to be structurally well-formed; an expired or even unsigned token can
// still be revoked, which keeps the operation idempotent from the caller's
// point of view.
func (tm *TokenManager) Invalidate(ctx context.Context, tokenString string) error {
	claims := &SessionClaims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return ErrTokenMalformed
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return ErrTokenMalformed
	}

	if err := tm.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}
