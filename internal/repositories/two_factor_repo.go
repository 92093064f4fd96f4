package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/aegisauth/aegis/internal/database"
	"github.com/aegisauth/aegis/internal/models"
	pkgauth "github.com/aegisauth/aegis/pkg/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresTwoFactorStore persists pending second-factor challenges, one row
// per email. Codes are stored bcrypt-hashed.
type PostgresTwoFactorStore struct {
	db  *database.DB
	ttl time.Duration
}

func NewPostgresTwoFactorStore(db *database.DB, ttl time.Duration) *PostgresTwoFactorStore {
	return &PostgresTwoFactorStore{db: db, ttl: ttl}
}

// Issue mints a fresh (attempt id, code) pair for email. An existing pending
// challenge for the email is silently superseded by the upsert.
func (r *PostgresTwoFactorStore) Issue(ctx context.Context, email models.Email) (string, string, error) {
	attemptID := uuid.New().String()

	code, err := generateTwoFactorCode()
	if err != nil {
		return "", "", err
	}

	codeHash, err := pkgauth.HashTwoFactorCode(code)
	if err != nil {
		return "", "", err
	}

	query := `
		INSERT INTO two_factor_challenges (email, login_attempt_id, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (email) DO UPDATE
		SET login_attempt_id = EXCLUDED.login_attempt_id,
		    code_hash = EXCLUDED.code_hash,
		    expires_at = EXCLUDED.expires_at,
		    created_at = NOW()
	`

	_, err = r.db.Pool.Exec(ctx, query,
		email.String(), attemptID, codeHash, time.Now().Add(r.ttl),
	)
	if err != nil {
		return "", "", database.MapPostgresError(err)
	}

	return attemptID, code, nil
}

// VerifyAndConsume checks the presented attempt id and code against the
// pending challenge. The row is locked for the duration of the check so two
// concurrent verifications cannot both consume the same challenge. Only a
// full match removes the row; mismatches leave it pending for a retry.
func (r *PostgresTwoFactorStore) VerifyAndConsume(ctx context.Context, email models.Email, attemptID, code string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			SELECT login_attempt_id, code_hash, expires_at
			FROM two_factor_challenges
			WHERE email = $1
			FOR UPDATE
		`

		var (
			storedAttemptID string
			codeHash        string
			expiresAt       time.Time
		)
		err := tx.QueryRow(ctx, query, email.String()).
			Scan(&storedAttemptID, &codeHash, &expiresAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrNoPendingChallenge
			}
			return database.MapPostgresError(err)
		}

		if time.Now().After(expiresAt) {
			// Expired challenges behave as if nothing is pending
			if _, err := tx.Exec(ctx, `DELETE FROM two_factor_challenges WHERE email = $1`, email.String()); err != nil {
				return database.MapPostgresError(err)
			}
			return models.ErrNoPendingChallenge
		}

		if storedAttemptID != attemptID {
			return models.ErrLoginAttemptIDMismatch
		}

		if err := pkgauth.CompareTwoFactorCode(codeHash, code); err != nil {
			return models.ErrTwoFactorCodeMismatch
		}

		if _, err := tx.Exec(ctx, `DELETE FROM two_factor_challenges WHERE email = $1`, email.String()); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

// CleanupExpired removes challenges whose expiry has passed.
func (r *PostgresTwoFactorStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Pool.Exec(ctx,
		`DELETE FROM two_factor_challenges WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
