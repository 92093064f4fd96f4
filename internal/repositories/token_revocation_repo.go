package repositories

import (
	"context"
	"time"

	"github.com/aegisauth/aegis/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTokenRevocationStore records revoked token JTIs until their
// embedded expiry passes.
type PostgresTokenRevocationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRevocationStore(db *database.DB) *PostgresTokenRevocationStore {
	return &PostgresTokenRevocationStore{pool: db.Pool}
}

// Revoke adds a token to the revocation list. Idempotent: revoking an
// already-revoked token succeeds.
func (r *PostgresTokenRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, jti, expiresAt)
	return database.MapPostgresError(err)
}

// IsRevoked reports whether the token identified by jti has been revoked.
func (r *PostgresTokenRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, jti).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// CleanupExpired removes entries whose embedded expiry has passed; such
// tokens already fail validation on expiry grounds, so purging them is safe.
func (r *PostgresTokenRevocationStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
