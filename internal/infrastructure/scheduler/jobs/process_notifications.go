package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROCESS NOTIFICATIONS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ProcessNotificationsJob drains the notification queue. Immediate
// notifications are delivered inline by ScheduleNotification; this job
// picks up everything else - scheduled ones whose time has come, failed
// ones with retry budget left, and expired ones that need closing out.
type ProcessNotificationsJob struct {
	notificationSvc notification.NotificationService
	logger          *slog.Logger

	config ProcessNotificationsConfig

	lastRunStats atomic.Value // *QueueStats
}

// ProcessNotificationsConfig contains configuration for the queue job.
type ProcessNotificationsConfig struct {
	// PendingBatchSize is how many due notifications one run delivers.
	PendingBatchSize int

	// RetryBatchSize is how many failed notifications one run retries.
	RetryBatchSize int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultProcessNotificationsConfig returns sensible defaults.
func DefaultProcessNotificationsConfig() ProcessNotificationsConfig {
	return ProcessNotificationsConfig{
		PendingBatchSize: 100,
		RetryBatchSize:   50,
		Timeout:          time.Minute,
	}
}

// QueueStats contains statistics from a queue run.
type QueueStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Delivered   int
	Retried     int
	Expired     int
	Errors      []error
}

// NewProcessNotificationsJob creates a new queue job.
func NewProcessNotificationsJob(
	notificationSvc notification.NotificationService,
	logger *slog.Logger,
	config ProcessNotificationsConfig,
) *ProcessNotificationsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.PendingBatchSize <= 0 {
		config.PendingBatchSize = 100
	}
	if config.RetryBatchSize <= 0 {
		config.RetryBatchSize = 50
	}

	return &ProcessNotificationsJob{
		notificationSvc: notificationSvc,
		logger:          logger,
		config:          config,
	}
}

// Name returns the job name.
func (j *ProcessNotificationsJob) Name() string {
	return "process_notifications"
}

// Description returns a human-readable description.
func (j *ProcessNotificationsJob) Description() string {
	return "Delivers due notifications, retries failed ones and expires stale ones"
}

// Run executes the queue job.
func (j *ProcessNotificationsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &QueueStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	delivered, err := j.notificationSvc.ProcessPendingNotifications(ctx, j.config.PendingBatchSize)
	stats.Delivered = delivered
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to process pending notifications", "error", err)
	}

	retried, err := j.notificationSvc.RetryFailedNotifications(ctx, j.config.RetryBatchSize)
	stats.Retried = retried
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to retry notifications", "error", err)
	}

	expired, err := j.notificationSvc.ProcessExpiredNotifications(ctx)
	stats.Expired = expired
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to expire notifications", "error", err)
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	if stats.Delivered > 0 || stats.Retried > 0 || stats.Expired > 0 {
		j.logger.Info("process_notifications job completed",
			"duration", stats.Duration.String(),
			"delivered", stats.Delivered,
			"retried", stats.Retried,
			"expired", stats.Expired,
		)
	}

	if len(stats.Errors) > 0 {
		return fmt.Errorf("queue run completed with %d errors", len(stats.Errors))
	}

	return nil
}

// LastRunStats returns statistics from the last queue run.
func (j *ProcessNotificationsJob) LastRunStats() *QueueStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*QueueStats)
}
