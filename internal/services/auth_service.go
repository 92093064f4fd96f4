package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aegisauth/aegis/internal/auth"
	"github.com/aegisauth/aegis/internal/models"
	pkgauth "github.com/aegisauth/aegis/pkg/auth"
	pkglogger "github.com/aegisauth/aegis/pkg/logger"
)

// UserStore is the credential-store capability the service consumes.
type UserStore interface {
	Add(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email models.Email) (*models.User, error)
	ValidateCredentials(ctx context.Context, email models.Email, password models.Password) error
}

// TwoFactorStore is the second-factor capability the service consumes.
type TwoFactorStore interface {
	Issue(ctx context.Context, email models.Email) (attemptID, code string, err error)
	VerifyAndConsume(ctx context.Context, email models.Email, attemptID, code string) error
}

const twoFactorEmailSubject = "Your verification code"

// AuthService sequences the login state machine: credential check, then
// either a second-factor round trip or direct token issuance. It maps the
// stores' internal error kinds onto the boundary taxonomy; the merged-away
// detail goes to the audit log.
type AuthService struct {
	users       UserStore
	twoFactor   TwoFactorStore
	tm          *auth.TokenManager
	notifier    EmailNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	twoFactor TwoFactorStore,
	tm *auth.TokenManager,
	notifier EmailNotifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		twoFactor:   twoFactor,
		tm:          tm,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// LoginResult is the outcome of a successful Login call. Either Token is set
// (the session is authenticated) or TwoFactorRequired is true and
// LoginAttemptID correlates the follow-up VerifyTwoFactor call.
type LoginResult struct {
	TwoFactorRequired bool
	Token             string
	LoginAttemptID    string
}

// SignUp registers a new account. Parse failures surface as the value
// objects' errors; a duplicate email surfaces as models.ErrConflict.
func (s *AuthService) SignUp(ctx context.Context, rawEmail, rawPassword string, requiresTwoFactor bool) error {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return err
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		return err
	}

	passwordHash, err := pkgauth.HashPassword(password.Reveal())
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	user := &models.User{
		Email:             email,
		PasswordHash:      passwordHash,
		RequiresTwoFactor: requiresTwoFactor,
	}

	if err := s.users.Add(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
				EventType:     "signup_failed",
				Email:         email.String(),
				FailureReason: "email_already_registered",
			})
			return models.ErrConflict
		}
		s.logger.Error("failed to add user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
		EventType: "signup",
		Email:     email.String(),
		Success:   true,
	})
	return nil
}

// Login checks the credential pair and either issues a session token
// directly or opens a second-factor challenge and emails the code. Unknown
// email and wrong password are merged into models.ErrIncorrectCredentials
// before anything reaches the caller.
func (s *AuthService) Login(ctx context.Context, rawEmail, rawPassword, ipAddress string) (*LoginResult, error) {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		return nil, err
	}

	if err := s.users.ValidateCredentials(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidCredentials):
			s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Email:         email.String(),
				IPAddress:     ipAddress,
				FailureReason: internalReason(err),
			})
			return nil, models.ErrIncorrectCredentials
		default:
			s.logger.Error("credential validation failed", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to load user after credential check", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.RequiresTwoFactor {
		return s.beginTwoFactor(ctx, email, ipAddress)
	}

	token, err := s.tm.Issue(email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
		EventType: "login_success",
		Email:     email.String(),
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{Token: token}, nil
}

// beginTwoFactor issues a challenge and delivers the code. The challenge
// write completes before the notifier call; if delivery fails the attempt
// fails and the challenge is abandoned, left to be superseded or to expire.
func (s *AuthService) beginTwoFactor(ctx context.Context, email models.Email, ipAddress string) (*LoginResult, error) {
	attemptID, code, err := s.twoFactor.Issue(ctx, email)
	if err != nil {
		s.logger.Error("failed to issue two-factor challenge", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	body := fmt.Sprintf("Your verification code is %s. It expires shortly; if you did not request it, ignore this message.", code)
	if err := s.notifier.Send(ctx, email, twoFactorEmailSubject, body); err != nil {
		s.logger.Error("failed to deliver two-factor code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
		EventType: "two_factor_issued",
		Email:     email.String(),
		IPAddress: ipAddress,
		Success:   true,
	})

	return &LoginResult{TwoFactorRequired: true, LoginAttemptID: attemptID}, nil
}

// VerifyTwoFactor consumes a pending challenge and finishes the login. All
// rejection causes (nothing pending, stale attempt id, wrong code, malformed
// email) are merged into models.ErrSecondFactorRejected; the specific cause
// is recorded in the audit log for diagnostics.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, rawEmail, attemptID, code, ipAddress string) (string, error) {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return "", models.ErrSecondFactorRejected
	}

	if err := s.twoFactor.VerifyAndConsume(ctx, email, attemptID, code); err != nil {
		switch {
		case errors.Is(err, models.ErrNoPendingChallenge),
			errors.Is(err, models.ErrLoginAttemptIDMismatch),
			errors.Is(err, models.ErrTwoFactorCodeMismatch):
			s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
				EventType:     "two_factor_failed",
				Email:         email.String(),
				IPAddress:     ipAddress,
				FailureReason: internalReason(err),
			})
			return "", models.ErrSecondFactorRejected
		default:
			s.logger.Error("two-factor verification failed", slog.Any("error", err))
			return "", models.ErrInternalServer
		}
	}

	token, err := s.tm.Issue(email)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
		EventType: "login_success",
		Email:     email.String(),
		IPAddress: ipAddress,
		Success:   true,
	})

	return token, nil
}

// Logout validates the presented token and revokes it. A revoked token can
// never re-enter the authenticated state.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrMissingToken
	}

	claims, err := s.tm.Validate(ctx, token)
	if err != nil {
		if isTokenRejection(err) {
			return models.ErrInvalidToken
		}
		s.logger.Error("token validation failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.tm.Invalidate(ctx, token); err != nil {
		if errors.Is(err, auth.ErrTokenMalformed) {
			return models.ErrInvalidToken
		}
		s.logger.Error("token revocation failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
		EventType: "logout",
		Email:     claims.Email(),
		Success:   true,
	})
	return nil
}

// VerifyToken checks a presented session token and returns its claims.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*auth.SessionClaims, error) {
	if token == "" {
		return nil, models.ErrInvalidToken
	}

	claims, err := s.tm.Validate(ctx, token)
	if err != nil {
		if isTokenRejection(err) {
			s.auditLogger.LogAuthEvent(pkglogger.AuditEvent{
				EventType:     "token_rejected",
				FailureReason: internalReason(err),
			})
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("token validation failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return claims, nil
}

// isTokenRejection distinguishes a token failing its checks from the
// revocation backend being unavailable.
func isTokenRejection(err error) bool {
	return errors.Is(err, auth.ErrTokenMalformed) ||
		errors.Is(err, auth.ErrTokenSignatureInvalid) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrTokenRevoked)
}

// internalReason renders an internal error kind as an audit-log tag.
func internalReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "user_not_found"
	case errors.Is(err, models.ErrInvalidCredentials):
		return "password_mismatch"
	case errors.Is(err, models.ErrNoPendingChallenge):
		return "no_pending_challenge"
	case errors.Is(err, models.ErrLoginAttemptIDMismatch):
		return "attempt_id_mismatch"
	case errors.Is(err, models.ErrTwoFactorCodeMismatch):
		return "code_mismatch"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token_malformed"
	case errors.Is(err, auth.ErrTokenSignatureInvalid):
		return "token_signature_invalid"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token_revoked"
	default:
		return "unknown"
	}
}
