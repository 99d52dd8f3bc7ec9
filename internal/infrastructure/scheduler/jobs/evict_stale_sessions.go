package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/economy"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVICT STALE STATE JOB
// ══════════════════════════════════════════════════════════════════════════════

// EvictStaleJob cleans up state that outlived its purpose:
//   - sessions that the browser never closed (tab killed, laptop shut).
//     Сессия ставит базу распада; забытая на сутки сессия занижает распад
//     для всех, кто её не закрыл, поэтому она принудительно завершается;
//   - READY orders from abandoned Toss checkouts, cancelled so the order
//     history stays honest;
//   - delivered and dead notifications past the retention window.
type EvictStaleJob struct {
	sessions    pet.SessionTracker
	paymentRepo economy.PaymentRepository
	notifRepo   notification.NotificationRepository
	logger      *slog.Logger

	config EvictStaleConfig

	lastRunStats atomic.Value // *EvictStats
}

// EvictStaleConfig contains configuration for the eviction job.
type EvictStaleConfig struct {
	// MaxSessionAge is how long a session may keep its decay baseline.
	MaxSessionAge time.Duration

	// StaleOrderAge is how old a READY order must be to get cancelled.
	StaleOrderAge time.Duration

	// NotificationRetention is how long stored notifications are kept.
	NotificationRetention time.Duration

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultEvictStaleConfig returns sensible defaults.
func DefaultEvictStaleConfig() EvictStaleConfig {
	return EvictStaleConfig{
		MaxSessionAge:         12 * time.Hour,
		StaleOrderAge:         24 * time.Hour,
		NotificationRetention: 30 * 24 * time.Hour,
		Timeout:               2 * time.Minute,
	}
}

// EvictStats contains statistics from an eviction run.
type EvictStats struct {
	StartedAt            time.Time
	CompletedAt          time.Time
	Duration             time.Duration
	SessionsChecked      int
	SessionsEvicted      int
	OrdersCancelled      int
	NotificationsDropped int64
	Errors               []error
}

// NewEvictStaleJob creates a new eviction job.
func NewEvictStaleJob(
	sessions pet.SessionTracker,
	paymentRepo economy.PaymentRepository,
	notifRepo notification.NotificationRepository,
	logger *slog.Logger,
	config EvictStaleConfig,
) *EvictStaleJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &EvictStaleJob{
		sessions:    sessions,
		paymentRepo: paymentRepo,
		notifRepo:   notifRepo,
		logger:      logger,
		config:      config,
	}
}

// Name returns the job name.
func (j *EvictStaleJob) Name() string {
	return "evict_stale"
}

// Description returns a human-readable description.
func (j *EvictStaleJob) Description() string {
	return "Ends forgotten sessions, cancels abandoned orders and prunes old notifications"
}

// Run executes the eviction job.
func (j *EvictStaleJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &EvictStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting evict_stale job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if err := j.evictStaleSessions(ctx, stats); err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to evict stale sessions", "error", err)
	}

	if err := j.cancelStaleOrders(ctx, stats); err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to cancel stale orders", "error", err)
	}

	if err := j.pruneNotifications(ctx, stats); err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to prune notifications", "error", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("evict_stale job completed",
		"duration", stats.Duration.String(),
		"sessions_evicted", stats.SessionsEvicted,
		"orders_cancelled", stats.OrdersCancelled,
		"notifications_dropped", stats.NotificationsDropped,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("eviction completed with %d errors", len(stats.Errors))
	}

	return nil
}

// evictStaleSessions ends sessions older than MaxSessionAge.
func (j *EvictStaleJob) evictStaleSessions(ctx context.Context, stats *EvictStats) error {
	if j.config.MaxSessionAge <= 0 {
		return nil
	}

	userIDs, err := j.sessions.ActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}

	now := time.Now()
	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stats.SessionsChecked++

		start, err := j.sessions.SessionStart(ctx, userID)
		if err != nil || start.IsZero() {
			continue
		}
		if now.Sub(start) < j.config.MaxSessionAge {
			continue
		}

		if err := j.sessions.EndSession(ctx, userID); err != nil {
			j.logger.Warn("failed to end stale session",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		stats.SessionsEvicted++

		j.logger.Info("evicted stale session",
			"user_id", userID,
			"session_age", now.Sub(start).String(),
		)
	}

	return nil
}

// cancelStaleOrders cancels READY orders from abandoned checkouts.
func (j *EvictStaleJob) cancelStaleOrders(ctx context.Context, stats *EvictStats) error {
	if j.config.StaleOrderAge <= 0 {
		return nil
	}

	orders, err := j.paymentRepo.FindStaleReady(ctx, j.config.StaleOrderAge)
	if err != nil {
		return fmt.Errorf("failed to find stale orders: %w", err)
	}

	now := time.Now()
	for _, o := range orders {
		if err := o.Cancel(now); err != nil {
			// A concurrent confirmation already completed the order.
			continue
		}
		if err := j.paymentRepo.UpdateOrder(ctx, o); err != nil {
			j.logger.Warn("failed to persist order cancellation",
				"order_id", o.OrderID,
				"error", err,
			)
			continue
		}
		stats.OrdersCancelled++
	}

	return nil
}

// pruneNotifications drops stored notifications past the retention window.
func (j *EvictStaleJob) pruneNotifications(ctx context.Context, stats *EvictStats) error {
	if j.config.NotificationRetention <= 0 || j.notifRepo == nil {
		return nil
	}

	before := time.Now().Add(-j.config.NotificationRetention)
	dropped, err := j.notifRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to delete old notifications: %w", err)
	}
	stats.NotificationsDropped = dropped

	return nil
}

// LastRunStats returns statistics from the last eviction run.
func (j *EvictStaleJob) LastRunStats() *EvictStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*EvictStats)
}
