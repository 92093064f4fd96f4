package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the fixed cookie that carries the bearer session token.
const SessionCookieName = "jwt"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Secure bool // HTTPS only
}

// SetSessionCookie stores the session token in an httpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true, // prevents JavaScript access
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionCookie retrieves the session token from the request, returning
// an empty string when the cookie is absent.
func GetSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
