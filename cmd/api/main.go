package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aegisauth/aegis/internal/auth"
	"github.com/aegisauth/aegis/internal/background"
	"github.com/aegisauth/aegis/internal/config"
	"github.com/aegisauth/aegis/internal/database"
	"github.com/aegisauth/aegis/internal/handlers"
	middlewareCustom "github.com/aegisauth/aegis/internal/middleware"
	"github.com/aegisauth/aegis/internal/repositories"
	"github.com/aegisauth/aegis/internal/routes"
	"github.com/aegisauth/aegis/internal/services"
	pkghttp "github.com/aegisauth/aegis/pkg/http"
	pkglogger "github.com/aegisauth/aegis/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store_backend", cfg.Auth.StoreBackend),
		slog.String("email_provider", cfg.Email.Provider),
	)

	// Wire the store backend
	var (
		userStore       services.UserStore
		twoFactorStore  services.TwoFactorStore
		revocations     auth.TokenRevocationStore
		revocationSweep background.ExpiryStore
		challengeSweep  background.ExpiryStore
		db              *database.DB
	)

	switch cfg.Auth.StoreBackend {
	case config.BackendPostgres:
		db, err = database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(migrateCtx); err != nil {
			cancel()
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()

		userStore = repositories.NewPostgresUserStore(db)
		pgTwoFactor := repositories.NewPostgresTwoFactorStore(db, cfg.Auth.TwoFactorCodeTTL)
		pgRevocations := repositories.NewPostgresTokenRevocationStore(db)
		twoFactorStore = pgTwoFactor
		revocations = pgRevocations
		revocationSweep = pgRevocations
		challengeSweep = pgTwoFactor
	default:
		userStore = repositories.NewHashmapUserStore()
		memTwoFactor := repositories.NewHashmapTwoFactorStore(cfg.Auth.TwoFactorCodeTTL)
		memRevocations := repositories.NewHashmapTokenRevocationStore()
		twoFactorStore = memTwoFactor
		revocations = memRevocations
		revocationSweep = memRevocations
		challengeSweep = memTwoFactor
	}

	// Wire the email provider
	var notifier services.EmailNotifier
	switch cfg.Email.Provider {
	case config.EmailProviderSES:
		notifier, err = services.NewSESEmailNotifier(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email provider", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		notifier = services.NewLogEmailNotifier(logger)
	}

	tokenManager := auth.NewTokenManager(
		auth.TokenConfig{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL},
		revocations,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)
	authService := services.NewAuthService(userStore, twoFactorStore, tokenManager, notifier, logger, auditLogger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	cookieCfg := auth.CookieConfig{Secure: cfg.Server.Env == "production"}
	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieCfg, cfg.Auth.TokenTTL)

	cleanupManager := background.NewCleanupManager(revocationSweep, challengeSweep, logger, cfg.Auth.CleanupInterval)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
