// Package jobs contains implementations of scheduled jobs for Studygotchi Hub.
// Each job keeps derived state honest: pet death is settled from checkpoints,
// the leaderboard is rebuilt from stored experience, stale sessions and
// abandoned checkouts are cleaned up, and queued notifications get delivered.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SWEEP DEAD PETS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SweepDeadPetsJob settles computed deaths for pets whose owners are away.
// Death is derived from checkpoints, so an abandoned pet only gets its sticky
// flag when something looks at it. Activity commands settle death for players
// who come back; this sweep settles it for everyone else, so leaderboard
// ghosts and death notifications do not wait for the owner's next visit.
type SweepDeadPetsJob struct {
	petRepo        pet.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config SweepDeadPetsConfig

	lastSweepStats atomic.Value // *SweepStats
}

// SweepDeadPetsConfig contains configuration for the sweep job.
type SweepDeadPetsConfig struct {
	// Concurrency is the number of pets evaluated in parallel.
	Concurrency int

	// BatchSize is the page size when walking alive pets.
	BatchSize int

	// Timeout is the maximum duration for the entire sweep.
	Timeout time.Duration
}

// DefaultSweepDeadPetsConfig returns sensible defaults.
func DefaultSweepDeadPetsConfig() SweepDeadPetsConfig {
	return SweepDeadPetsConfig{
		Concurrency: 5,
		BatchSize:   200,
		Timeout:     5 * time.Minute,
	}
}

// SweepStats contains statistics from a sweep run.
type SweepStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	PetsChecked int
	DeathsFound int
	FailedCount int
	ByCause     map[pet.CauseOfDeath]int
	Errors      []SweepError
}

// SweepError represents a single pet that could not be settled.
type SweepError struct {
	PetID      string
	UserID     string
	Error      error
	OccurredAt time.Time
}

// NewSweepDeadPetsJob creates a new sweep job.
func NewSweepDeadPetsJob(
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config SweepDeadPetsConfig,
) *SweepDeadPetsJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 5
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 200
	}

	return &SweepDeadPetsJob{
		petRepo:        petRepo,
		sessions:       sessions,
		petCache:       petCache,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *SweepDeadPetsJob) Name() string {
	return "sweep_dead_pets"
}

// Description returns a human-readable description.
func (j *SweepDeadPetsJob) Description() string {
	return "Settles computed deaths for pets of absent owners"
}

// Run executes the sweep.
func (j *SweepDeadPetsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &SweepStats{
		StartedAt: startedAt,
		ByCause:   make(map[pet.CauseOfDeath]int),
		Errors:    make([]SweepError, 0),
	}

	j.logger.Info("starting sweep_dead_pets job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Active sessions shift the decay baseline, so fetch them once up front.
	sessionStarts, err := j.activeSessionStarts(ctx)
	if err != nil {
		j.logger.Warn("failed to load active sessions, using wall-clock decay", "error", err)
		sessionStarts = map[string]time.Time{}
	}

	for offset := 0; ; offset += j.config.BatchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		opts := pet.DefaultListOptions().
			WithOffset(offset).
			WithLimit(j.config.BatchSize).
			WithSort("created_at", false)
		batch, err := j.petRepo.GetAlive(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to load alive pets: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		j.sweepBatch(ctx, batch, sessionStarts, stats)

		if len(batch) < j.config.BatchSize {
			break
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastSweepStats.Store(stats)

	j.logger.Info("sweep_dead_pets job completed",
		"duration", stats.Duration.String(),
		"checked", stats.PetsChecked,
		"deaths", stats.DeathsFound,
		"failed", stats.FailedCount,
	)

	if stats.PetsChecked > 0 {
		failureRate := float64(stats.FailedCount) / float64(stats.PetsChecked)
		if failureRate > 0.5 {
			return fmt.Errorf("sweep failed for more than 50%% of pets (%d/%d)",
				stats.FailedCount, stats.PetsChecked)
		}
	}

	return nil
}

// activeSessionStarts returns sessionStart per user with an active session.
func (j *SweepDeadPetsJob) activeSessionStarts(ctx context.Context) (map[string]time.Time, error) {
	userIDs, err := j.sessions.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	starts := make(map[string]time.Time, len(userIDs))
	for _, userID := range userIDs {
		start, err := j.sessions.SessionStart(ctx, userID)
		if err != nil || start.IsZero() {
			continue
		}
		starts[userID] = start
	}
	return starts, nil
}

// sweepBatch evaluates a batch of pets using a worker pool.
func (j *SweepDeadPetsJob) sweepBatch(
	ctx context.Context,
	pets []*pet.Pet,
	sessionStarts map[string]time.Time,
	stats *SweepStats,
) {
	var (
		wg        sync.WaitGroup
		semaphore = make(chan struct{}, j.config.Concurrency)
		mu        sync.Mutex
	)

	now := time.Now().UTC()

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

			cause, err := j.settlePet(ctx, p, sessionStarts[p.UserID], now)

			mu.Lock()
			defer mu.Unlock()

			stats.PetsChecked++
			if err != nil {
				stats.FailedCount++
				stats.Errors = append(stats.Errors, SweepError{
					PetID:      p.ID,
					UserID:     p.UserID,
					Error:      err,
					OccurredAt: time.Now(),
				})
				j.logger.Error("failed to settle pet death",
					"pet_id", p.ID,
					"user_id", p.UserID,
					"error", err,
				)
				return
			}
			if cause != pet.CauseNone {
				stats.DeathsFound++
				stats.ByCause[cause]++
			}
		}(p)
	}

	wg.Wait()
}

// settlePet evaluates one pet and persists the death flag if it just
// became true. Returns the confirmed cause, CauseNone for a living pet.
func (j *SweepDeadPetsJob) settlePet(
	ctx context.Context,
	p *pet.Pet,
	sessionStart time.Time,
	now time.Time,
) (pet.CauseOfDeath, error) {
	dead, cause := p.EvaluateDeath(sessionStart, now)
	if !dead {
		return pet.CauseNone, nil
	}

	// Already flagged in storage, nothing to settle.
	if !p.ConfirmDeath(now) {
		return pet.CauseNone, nil
	}

	if err := j.petRepo.Update(ctx, p); err != nil {
		return pet.CauseNone, fmt.Errorf("failed to persist death: %w", err)
	}

	if j.petCache != nil {
		if err := j.petCache.Invalidate(ctx, p.ID); err != nil {
			j.logger.Warn("failed to invalidate pet cache",
				"pet_id", p.ID,
				"error", err,
			)
		}
	}

	j.logger.Info("pet death settled",
		"pet_id", p.ID,
		"user_id", p.UserID,
		"pet_name", p.Name,
		"cause", string(cause),
	)

	if j.eventPublisher != nil {
		event := shared.NewPetDiedEvent(p.ID, p.UserID, p.Name, string(cause), int(p.Level), p.DiedAt)
		if err := j.eventPublisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish pet died event",
				"pet_id", p.ID,
				"error", err,
			)
		}
	}

	return cause, nil
}

// LastSweepStats returns statistics from the last sweep run.
func (j *SweepDeadPetsJob) LastSweepStats() *SweepStats {
	stats := j.lastSweepStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*SweepStats)
}
