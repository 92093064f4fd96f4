package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/aegisauth/aegis/internal/auth"
	"github.com/aegisauth/aegis/internal/repositories"
	"github.com/aegisauth/aegis/internal/services"
	pkghttp "github.com/aegisauth/aegis/pkg/http"
	pkglogger "github.com/aegisauth/aegis/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

type testEnv struct {
	router   chi.Router
	notifier *services.MockEmailNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.Default()
	tm := auth.NewTokenManager(
		auth.TokenConfig{Secret: "handler-test-signing-secret-32ch", TTL: 15 * time.Minute},
		repositories.NewHashmapTokenRevocationStore(),
	)
	notifier := &services.MockEmailNotifier{}
	svc := services.NewAuthService(
		repositories.NewHashmapUserStore(),
		repositories.NewHashmapTwoFactorStore(10*time.Minute),
		tm,
		notifier,
		logger,
		pkglogger.NewAuditLogger(logger),
	)

	handler := NewAuthHandler(svc, &pkghttp.IPConfig{}, auth.CookieConfig{}, 15*time.Minute)

	router := chi.NewRouter()
	router.Post("/signup", handler.Signup)
	router.Post("/login", handler.Login)
	router.Post("/verify-2fa", handler.Verify2FA)
	router.Post("/logout", handler.Logout)
	router.Post("/verify-token", handler.VerifyToken)

	return &testEnv{router: router, notifier: notifier}
}

func (e *testEnv) post(t *testing.T, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signup(t *testing.T, email, password string, requires2FA bool) {
	t.Helper()
	w := e.post(t, "/signup", SignupRequest{Email: email, Password: password, Requires2FA: requires2FA})
	require.Equal(t, http.StatusCreated, w.Code, "signup body: %s", w.Body.String())
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// ============================================================================
// Signup
// ============================================================================

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/signup", SignupRequest{Email: "user@example.com", Password: "password123"})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Duplicate email
	w = env.post(t, "/signup", SignupRequest{Email: "user@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignup_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name     string
		body     any
		expected int
	}{
		{name: "malformed json", body: `{"email": "user@example.com",`, expected: http.StatusUnprocessableEntity},
		{name: "missing password", body: SignupRequest{Email: "user@example.com"}, expected: http.StatusBadRequest},
		{name: "email without at sign", body: SignupRequest{Email: "userexample.com", Password: "password123"}, expected: http.StatusBadRequest},
		{name: "short password", body: SignupRequest{Email: "user@example.com", Password: "short"}, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, "/signup", tt.body)
			assert.Equal(t, tt.expected, w.Code, "body: %s", w.Body.String())
		})
	}
}

// ============================================================================
// Login without a second factor
// ============================================================================

func TestLogin_Direct(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@example.com", "password123", false)

	w := env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	token := decodeToken(t, w)
	cookie := sessionCookie(t, w)
	assert.Equal(t, token, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// The token verifies
	w = env.post(t, "/verify-token", VerifyTokenRequest{Token: token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_IncorrectCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@example.com", "password123", false)

	// Wrong password and unknown email produce the same response
	w := env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()

	w = env.post(t, "/login", LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, w.Body.String())
}

func TestLogin_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/login", `{"email":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.post(t, "/login", LoginRequest{Email: "not-an-email", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ============================================================================
// Two-factor flow
// ============================================================================

func TestLogin_TwoFactorFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@example.com", "password123", true)

	w := env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusPartialContent, w.Code, "body: %s", w.Body.String())

	var pending TwoFactorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.NotEmpty(t, pending.LoginAttemptID)

	// The code went out by email, never in the HTTP response
	require.Len(t, env.notifier.Sent, 1)
	code := codePattern.FindString(env.notifier.Sent[0].Body)
	require.NotEmpty(t, code)
	assert.NotContains(t, w.Body.String(), code)

	// A wrong code is rejected and leaves the challenge pending
	w = env.post(t, "/verify-2fa", Verify2FARequest{
		Email:          "user@example.com",
		LoginAttemptID: pending.LoginAttemptID,
		Code:           "000000",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The correct code completes the login
	w = env.post(t, "/verify-2fa", Verify2FARequest{
		Email:          "user@example.com",
		LoginAttemptID: pending.LoginAttemptID,
		Code:           code,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	token := decodeToken(t, w)
	sessionCookie(t, w)

	w = env.post(t, "/verify-token", VerifyTokenRequest{Token: token})
	assert.Equal(t, http.StatusOK, w.Code)

	// The challenge was consumed; the same code never works twice
	w = env.post(t, "/verify-2fa", Verify2FARequest{
		Email:          "user@example.com",
		LoginAttemptID: pending.LoginAttemptID,
		Code:           code,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerify2FA_StaleAttemptID(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@example.com", "password123", true)

	// Two logins: the second challenge supersedes the first
	w := env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusPartialContent, w.Code)
	var first TwoFactorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusPartialContent, w.Code)

	require.Len(t, env.notifier.Sent, 2)
	secondCode := codePattern.FindString(env.notifier.Sent[1].Body)

	w = env.post(t, "/verify-2fa", Verify2FARequest{
		Email:          "user@example.com",
		LoginAttemptID: first.LoginAttemptID,
		Code:           secondCode,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerify2FA_MalformedFields(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  Verify2FARequest
	}{
		{
			name: "attempt id not a uuid",
			req:  Verify2FARequest{Email: "user@example.com", LoginAttemptID: "not-a-uuid", Code: "123456"},
		},
		{
			name: "code wrong length",
			req:  Verify2FARequest{Email: "user@example.com", LoginAttemptID: "d2b7f5a1-4f5e-4d7a-9c3b-2a1e8f6b0c4d", Code: "123"},
		},
		{
			name: "missing email",
			req:  Verify2FARequest{LoginAttemptID: "d2b7f5a1-4f5e-4d7a-9c3b-2a1e8f6b0c4d", Code: "123456"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.post(t, "/verify-2fa", tt.req)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "body: %s", w.Body.String())
		})
	}
}

func TestVerify2FA_NoPendingChallenge(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/verify-2fa", Verify2FARequest{
		Email:          "user@example.com",
		LoginAttemptID: "00000000-0000-0000-0000-000000000000",
		Code:           "123456",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.post(t, "/verify-2fa", `{"email":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ============================================================================
// Logout / verify-token
// ============================================================================

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "user@example.com", "password123", false)

	w := env.post(t, "/login", LoginRequest{Email: "user@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeToken(t, w)
	cookie := sessionCookie(t, w)

	w = env.post(t, "/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	// The cookie is cleared
	cleared := sessionCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	// The revoked token never verifies again
	w = env.post(t, "/verify-token", VerifyTokenRequest{Token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A second logout with the revoked token is rejected
	w = env.post(t, "/logout", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_MissingCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/logout", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_GarbageCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/logout", nil, &http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	w := env.post(t, "/verify-token", VerifyTokenRequest{Token: ""})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.post(t, "/verify-token", VerifyTokenRequest{Token: "not.a.token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.post(t, "/verify-token", `{"token":`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
