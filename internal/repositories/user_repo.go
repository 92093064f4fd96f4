package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/aegisauth/aegis/internal/database"
	"github.com/aegisauth/aegis/internal/models"
	pkgauth "github.com/aegisauth/aegis/pkg/auth"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore persists users in Postgres, keyed by email.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(db *database.DB) *PostgresUserStore {
	return &PostgresUserStore{pool: db.Pool}
}

// Add inserts a new user. Returns models.ErrConflict when the email is
// already registered; the failed insert leaves no partial state behind.
func (r *PostgresUserStore) Add(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, requires_2fa, created_at)
		VALUES ($1, $2, $3, $4)
	`

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.pool.Exec(ctx, query,
		user.Email.String(), user.PasswordHash, user.RequiresTwoFactor, createdAt,
	)
	return database.MapPostgresError(err)
}

// GetByEmail returns the user for email, or models.ErrNotFound.
func (r *PostgresUserStore) GetByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	query := `
		SELECT email, password_hash, requires_2fa, created_at
		FROM users WHERE email = $1
	`

	var (
		rawEmail     string
		passwordHash string
		requires2FA  bool
		createdAt    time.Time
	)
	err := r.pool.QueryRow(ctx, query, email.String()).
		Scan(&rawEmail, &passwordHash, &requires2FA, &createdAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	parsed, err := models.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Email:             parsed,
		PasswordHash:      passwordHash,
		RequiresTwoFactor: requires2FA,
		CreatedAt:         createdAt,
	}, nil
}

// ValidateCredentials compares password against the stored hash. It reports
// models.ErrNotFound and models.ErrInvalidCredentials as distinct outcomes;
// merging them is the orchestrator's job.
func (r *PostgresUserStore) ValidateCredentials(ctx context.Context, email models.Email, password models.Password) error {
	query := `SELECT password_hash FROM users WHERE email = $1`

	var passwordHash string
	err := r.pool.QueryRow(ctx, query, email.String()).Scan(&passwordHash)
	if err != nil {
		mapped := database.MapPostgresError(err)
		if errors.Is(mapped, models.ErrNotFound) {
			// Burn a comparison so an unknown email takes as long as
			// a wrong password.
			pkgauth.CompareDummyPassword(password.Reveal())
		}
		return mapped
	}

	if err := pkgauth.ComparePassword(passwordHash, password.Reveal()); err != nil {
		return models.ErrInvalidCredentials
	}
	return nil
}
