package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/exam"
	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/study"
	"github.com/studygotchi/studygotchi-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY DIGEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyDigestJob sends each player an evening summary of the study day:
// заметки, сданные экзамены, место в рейтинге и состояние питомца.
// Дайджест получают только те, кто сегодня что-то делал: пустая сводка
// ощущается как упрёк, а не как подбадривание.
type DailyDigestJob struct {
	petRepo         pet.Repository
	studyRepo       study.Repository
	examRepo        exam.Repository
	rankingCache    leaderboard.Cache
	notificationSvc notification.NotificationService
	logger          *slog.Logger

	config DailyDigestConfig

	lastRunStats atomic.Value // *DailyDigestStats
}

// DailyDigestConfig contains configuration for the daily digest job.
type DailyDigestConfig struct {
	// Enabled turns the digest on.
	Enabled bool

	// IncludeRank includes the global leaderboard position.
	IncludeRank bool

	// SkipInactiveAfterDays skips owners whose last note is older than N days.
	SkipInactiveAfterDays int

	// Concurrency is the number of digests built in parallel.
	Concurrency int

	// Timeout is the maximum duration for the job.
	Timeout time.Duration
}

// DefaultDailyDigestConfig returns sensible defaults.
func DefaultDailyDigestConfig() DailyDigestConfig {
	return DailyDigestConfig{
		Enabled:               true,
		IncludeRank:           true,
		SkipInactiveAfterDays: 14,
		Concurrency:           10,
		Timeout:               10 * time.Minute,
	}
}

// DailyDigestStats contains statistics from a digest run.
type DailyDigestStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	TotalPets      int
	DigestsSent    int
	DigestsSkipped int
	DigestsFailed  int
	SkippedReasons map[string]int
	Errors         []error
}

// digestContent is the collected material for one player's digest.
type digestContent struct {
	PetName      string
	StageEmoji   string
	NotesWritten int
	ExamsPassed  int
	Rank         int
	TotalExp     int
	Level        int
}

// NewDailyDigestJob creates a new daily digest job.
func NewDailyDigestJob(
	petRepo pet.Repository,
	studyRepo study.Repository,
	examRepo exam.Repository,
	rankingCache leaderboard.Cache,
	notificationSvc notification.NotificationService,
	logger *slog.Logger,
	config DailyDigestConfig,
) *DailyDigestJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 10
	}

	return &DailyDigestJob{
		petRepo:         petRepo,
		studyRepo:       studyRepo,
		examRepo:        examRepo,
		rankingCache:    rankingCache,
		notificationSvc: notificationSvc,
		logger:          logger,
		config:          config,
	}
}

// Name returns the job name.
func (j *DailyDigestJob) Name() string {
	return "daily_digest"
}

// Description returns a human-readable description.
func (j *DailyDigestJob) Description() string {
	return "Sends an evening study summary to players who were active today"
}

// Run executes the daily digest job.
func (j *DailyDigestJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &DailyDigestStats{
		StartedAt:      startedAt,
		SkippedReasons: make(map[string]int),
		Errors:         make([]error, 0),
	}

	j.logger.Info("starting daily_digest job")

	if !j.config.Enabled {
		j.logger.Info("daily digest is disabled")
		return nil
	}

	// The schedule should already land inside safe hours, but the guard
	// keeps a misconfigured cron from waking people at night.
	if !timeutil.IsSafeNotificationTime(startedAt) {
		j.logger.Warn("daily digest scheduled outside safe hours, skipping run")
		return nil
	}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	pets, err := j.getLivingPets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pets: %w", err)
	}

	stats.TotalPets = len(pets)
	j.logger.Info("found pets for digest", "count", stats.TotalPets)

	if stats.TotalPets == 0 {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(startedAt)
		j.lastRunStats.Store(stats)
		return nil
	}

	j.sendDigestsConcurrently(ctx, pets, stats)

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRunStats.Store(stats)

	j.logger.Info("daily_digest job completed",
		"duration", stats.Duration.String(),
		"total", stats.TotalPets,
		"sent", stats.DigestsSent,
		"skipped", stats.DigestsSkipped,
		"failed", stats.DigestsFailed,
	)

	return nil
}

// getLivingPets walks the living pets page by page.
func (j *DailyDigestJob) getLivingPets(ctx context.Context) ([]*pet.Pet, error) {
	const pageSize = 500

	all := make([]*pet.Pet, 0, pageSize)
	for offset := 0; ; offset += pageSize {
		opts := pet.DefaultListOptions().WithOffset(offset).WithLimit(pageSize)
		batch, err := j.petRepo.GetAlive(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// sendDigestsConcurrently sends digests using a worker pool.
func (j *DailyDigestJob) sendDigestsConcurrently(
	ctx context.Context,
	pets []*pet.Pet,
	stats *DailyDigestStats,
) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	for _, p := range pets {
		select {
		case <-ctx.Done():
			return
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(p *pet.Pet) {
			defer wg.Done()
			defer func() { <-semaphore }()

			skipReason, err := j.sendDigest(ctx, p)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				stats.DigestsFailed++
				stats.Errors = append(stats.Errors, err)
				j.logger.Error("failed to send digest",
					"user_id", p.UserID,
					"pet_id", p.ID,
					"error", err,
				)
			case skipReason != "":
				stats.DigestsSkipped++
				stats.SkippedReasons[skipReason]++
			default:
				stats.DigestsSent++
			}
		}(p)
	}

	wg.Wait()
}

// sendDigest builds and schedules the digest for one player.
// Returns a non-empty skip reason when the player gets no digest today.
func (j *DailyDigestJob) sendDigest(ctx context.Context, p *pet.Pet) (string, error) {
	if j.config.SkipInactiveAfterDays > 0 && !p.LastStudiedAt.IsZero() {
		if timeutil.DaysSince(p.LastStudiedAt) > j.config.SkipInactiveAfterDays {
			return "too_inactive", nil
		}
	}

	content, err := j.buildContent(ctx, p)
	if err != nil {
		return "", err
	}
	if content.NotesWritten == 0 && content.ExamsPassed == 0 {
		return "no_activity_today", nil
	}

	now := time.Now().UTC()
	expiresAt := now.Add(12 * time.Hour)
	priority := notification.PriorityLow

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.NotificationTypeDailyDigest,
		RecipientID: notification.RecipientID(p.UserID),
		Title:       "오늘의 공부 기록 📔",
		Message:     j.formatMessage(content),
		Priority:    &priority,
		ExpiresAt:   &expiresAt,
		Data: notification.NotificationData{
			PetID:        p.ID,
			PetName:      p.Name,
			NotesWritten: content.NotesWritten,
			ExamsPassed:  content.ExamsPassed,
			NewRank:      content.Rank,
			TotalExp:     content.TotalExp,
		},
	})
	if err != nil {
		return "", fmt.Errorf("build digest notification: %w", err)
	}

	if err := j.notificationSvc.ScheduleNotification(ctx, n); err != nil {
		return "", fmt.Errorf("schedule digest: %w", err)
	}

	return "", nil
}

// buildContent collects the digest material for one player.
func (j *DailyDigestJob) buildContent(ctx context.Context, p *pet.Pet) (*digestContent, error) {
	content := &digestContent{
		PetName:    p.Name,
		StageEmoji: pet.StageFor(p.Level).Emoji,
		TotalExp:   int(p.Experience),
		Level:      int(p.Level),
	}

	dayStart := timeutil.StartOfDay(time.Now())

	notes, err := j.studyRepo.CountSince(ctx, p.UserID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("count study notes: %w", err)
	}
	content.NotesWritten = notes

	passed, err := j.examRepo.CountCorrectSince(ctx, p.UserID, dayStart)
	if err != nil {
		j.logger.Warn("failed to count passed exams",
			"user_id", p.UserID,
			"error", err,
		)
	} else {
		content.ExamsPassed = passed
	}

	if j.config.IncludeRank {
		rank, err := j.rankingCache.GetRank(ctx, leaderboard.ScopeGlobal, p.ID)
		if err != nil && !errors.Is(err, leaderboard.ErrPetNotRanked) {
			j.logger.Warn("failed to load rank for digest",
				"pet_id", p.ID,
				"error", err,
			)
		}
		if rank.IsValid() {
			content.Rank = int(rank)
		}
	}

	return content, nil
}

// formatMessage renders the digest message in Korean.
func (j *DailyDigestJob) formatMessage(c *digestContent) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s의 하루 📊\n", c.StageEmoji, c.PetName))
	sb.WriteString(fmt.Sprintf("_%s_\n\n", timeutil.FormatKorean(time.Now())))

	if c.NotesWritten > 0 {
		sb.WriteString(fmt.Sprintf("✏️ 오늘 쓴 노트: %d개\n", c.NotesWritten))
	}
	if c.ExamsPassed > 0 {
		sb.WriteString(fmt.Sprintf("💮 통과한 시험: %d개\n", c.ExamsPassed))
	}
	sb.WriteString(fmt.Sprintf("⭐ 경험치: %d (레벨 %d)\n", c.TotalExp, c.Level))

	if c.Rank > 0 {
		medal := leaderboard.Rank(c.Rank).Medal()
		if medal != "" {
			sb.WriteString(fmt.Sprintf("🏆 현재 %d위 %s\n", c.Rank, medal))
		} else {
			sb.WriteString(fmt.Sprintf("🏆 현재 %d위\n", c.Rank))
		}
	}

	sb.WriteString("\n내일도 같이 공부해요! 🍀")

	return sb.String()
}

// LastRunStats returns statistics from the last digest run.
func (j *DailyDigestJob) LastRunStats() *DailyDigestStats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*DailyDigestStats)
}
