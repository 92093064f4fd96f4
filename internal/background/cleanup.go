package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiryStore is any store that can drop rows past their expiry.
type ExpiryStore interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// CleanupManager periodically removes expired revocation records and stale
// two-factor challenges. Expired entries already behave as absent; this just
// keeps the stores from growing without bound.
type CleanupManager struct {
	revocations ExpiryStore
	challenges  ExpiryStore
	logger      *slog.Logger
	interval    time.Duration
	stopCh      chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(revocations, challenges ExpiryStore, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		revocations: revocations,
		challenges:  challenges,
		logger:      logger,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cm.sweep(cleanupCtx, "revoked_tokens", cm.revocations)
	cm.sweep(cleanupCtx, "two_factor_challenges", cm.challenges)
}

func (cm *CleanupManager) sweep(ctx context.Context, name string, store ExpiryStore) {
	deleted, err := store.CleanupExpired(ctx)
	if err != nil {
		cm.logger.Error("cleanup failed", slog.String("store", name), slog.Any("error", err))
		return
	}
	if deleted > 0 {
		cm.logger.Info("cleanup completed", slog.String("store", name), slog.Int64("rows_deleted", deleted))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
