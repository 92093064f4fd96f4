package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aegisauth/aegis/internal/auth"
	"github.com/aegisauth/aegis/internal/models"
	"github.com/aegisauth/aegis/internal/services"
	pkghttp "github.com/aegisauth/aegis/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	SignUp(ctx context.Context, email, password string, requiresTwoFactor bool) error
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	VerifyTwoFactor(ctx context.Context, email, attemptID, code, ipAddress string) (string, error)
	Logout(ctx context.Context, token string) error
	VerifyToken(ctx context.Context, token string) (*auth.SessionClaims, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service   AuthServiceInterface
	ipConfig  *pkghttp.IPConfig
	cookieCfg auth.CookieConfig
	tokenTTL  time.Duration
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieCfg auth.CookieConfig, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:   service,
		ipConfig:  ipConfig,
		cookieCfg: cookieCfg,
		tokenTTL:  tokenTTL,
	}
}

// Request DTOs

// SignupRequest represents the request body for account creation
type SignupRequest struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	Requires2FA bool   `json:"requires2FA"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Verify2FARequest represents the request body for second-factor verification
type Verify2FARequest struct {
	Email          string `json:"email" validate:"required"`
	LoginAttemptID string `json:"login_attempt_id" validate:"required,uuid4"`
	Code           string `json:"code" validate:"required,len=6"`
}

// VerifyTokenRequest represents the request body for token verification
type VerifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Response DTOs

// MessageResponse carries a human-readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a freshly issued session token
type TokenResponse struct {
	Token string `json:"token"`
}

// TwoFactorResponse signals that the login is pending a second factor
type TwoFactorResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"login_attempt_id"`
}

// Signup handles account creation
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteUnprocessableEntity(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	if err := h.service.SignUp(r.Context(), req.Email, req.Password, req.Requires2FA); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidEmail), errors.Is(err, models.ErrPasswordTooShort):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "User already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, MessageResponse{Message: "User created successfully"})
}

// Login handles the first step of authentication. A user without a second
// factor gets a session token directly; otherwise the response is 206 with
// the login attempt id and the code goes out by email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteUnprocessableEntity(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidEmail), errors.Is(err, models.ErrPasswordTooShort):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrIncorrectCredentials):
			pkghttp.WriteUnauthorized(w, "Incorrect credentials")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	if result.TwoFactorRequired {
		pkghttp.WriteJSON(w, http.StatusPartialContent, TwoFactorResponse{
			Message:        "2FA required",
			LoginAttemptID: result.LoginAttemptID,
		})
		return
	}

	auth.SetSessionCookie(w, result.Token, h.tokenTTL, h.cookieCfg)
	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{Token: result.Token})
}

// Verify2FA handles the second step of authentication. Every rejection
// (nothing pending, stale attempt id, wrong code) comes back 401.
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req Verify2FARequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteUnprocessableEntity(w, "Invalid request body")
		return
	}

	// A structurally invalid request can never match a pending challenge,
	// so it gets the same 401 as any other rejection.
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteUnauthorized(w, "Invalid code or login attempt")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	token, err := h.service.VerifyTwoFactor(r.Context(), req.Email, req.LoginAttemptID, req.Code, ipAddress)
	if err != nil {
		if errors.Is(err, models.ErrSecondFactorRejected) {
			pkghttp.WriteUnauthorized(w, "Invalid code or login attempt")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetSessionCookie(w, token, h.tokenTTL, h.cookieCfg)
	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Logout revokes the session token carried by the session cookie and clears
// the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.GetSessionCookie(r)

	if err := h.service.Logout(r.Context(), token); err != nil {
		switch {
		case errors.Is(err, models.ErrMissingToken):
			pkghttp.WriteBadRequest(w, "Missing session token")
		case errors.Is(err, models.ErrInvalidToken):
			pkghttp.WriteUnauthorized(w, "Invalid session token")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.ClearSessionCookie(w, h.cookieCfg)
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// VerifyToken checks a bearer token presented in the request body.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteUnprocessableEntity(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteUnauthorized(w, "Invalid token")
		return
	}

	claims, err := h.service.VerifyToken(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteUnauthorized(w, "Invalid token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Token is valid for " + claims.Email()})
}
