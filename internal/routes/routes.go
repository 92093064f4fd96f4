package routes

import (
	"github.com/aegisauth/aegis/internal/handlers"
	"github.com/aegisauth/aegis/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, authHandler *handlers.AuthHandler) {
	// Rate limiting config for credential-bearing endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/signup", authHandler.Signup)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/verify-2fa", authHandler.Verify2FA)

	router.Post("/logout", authHandler.Logout)
	router.Post("/verify-token", authHandler.VerifyToken)
}
