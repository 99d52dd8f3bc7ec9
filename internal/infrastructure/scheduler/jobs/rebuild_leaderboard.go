package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/classroom"
	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the global and per-classroom rankings from
// stored pet experience. Each run fixes a snapshot in Postgres, reloads the
// hot Redis ranking from it and публикует события сдвига рангов, из которых
// обработчики делают уведомления.
type RebuildLeaderboardJob struct {
	petRepo        pet.Repository
	classroomRepo  classroom.Repository
	snapshots      leaderboard.Repository
	cache          leaderboard.Cache
	eventPublisher shared.EventPublisher
	logger         *slog.Logger

	config RebuildLeaderboardConfig

	lastRebuildStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// PublishRankChanges enables rank change events. The notification
	// policy (thresholds, milestones) lives in the event handlers.
	PublishRankChanges bool

	// RebuildClassrooms enables per-classroom rankings.
	RebuildClassrooms bool

	// HistoryTopN limits rank history persistence to the top N entries.
	HistoryTopN int

	// SnapshotRetention is how long old snapshots are kept.
	SnapshotRetention time.Duration

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		PublishRankChanges: true,
		RebuildClassrooms:  true,
		HistoryTopN:        100,
		SnapshotRetention:  7 * 24 * time.Hour,
		Timeout:            5 * time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt           time.Time
	CompletedAt         time.Time
	Duration            time.Duration
	TotalPets           int
	ClassroomsProcessed int
	SnapshotsCreated    int
	RankChangesFound    int
	EventsPublished     int
	TopEntries          int
	TopExits            int
	Errors              []error
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	petRepo pet.Repository,
	classroomRepo classroom.Repository,
	snapshots leaderboard.Repository,
	cache leaderboard.Cache,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		petRepo:        petRepo,
		classroomRepo:  classroomRepo,
		snapshots:      snapshots,
		cache:          cache,
		eventPublisher: eventPublisher,
		logger:         logger,
		config:         config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds experience rankings, snapshots them and detects rank changes"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_leaderboard job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Dead pets stay ranked as ghosts, so the walk includes them.
	pets, err := j.getAllPets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pets: %w", err)
	}

	stats.TotalPets = len(pets)
	j.logger.Info("found pets for leaderboard", "count", stats.TotalPets)

	if stats.TotalPets == 0 {
		stats.CompletedAt = time.Now()
		stats.Duration = stats.CompletedAt.Sub(startedAt)
		j.lastRebuildStats.Store(stats)
		return nil
	}

	if err := j.rebuildScope(ctx, leaderboard.ScopeGlobal, pets, stats); err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to rebuild global leaderboard", "error", err)
	}

	if j.config.RebuildClassrooms {
		byClassroom := j.groupByClassroom(ctx, pets)
		for classroomID, classPets := range byClassroom {
			scope := leaderboard.ScopeForClassroom(classroomID)
			if err := j.rebuildScope(ctx, scope, classPets, stats); err != nil {
				stats.Errors = append(stats.Errors, err)
				j.logger.Error("failed to rebuild classroom leaderboard",
					"classroom_id", classroomID,
					"error", err,
				)
			}
			stats.ClassroomsProcessed++
		}
	}

	if j.config.SnapshotRetention > 0 {
		deleted, err := j.snapshots.DeleteOldSnapshots(ctx, j.config.SnapshotRetention)
		if err != nil {
			j.logger.Warn("failed to delete old snapshots", "error", err)
		} else if deleted > 0 {
			j.logger.Info("deleted old snapshots", "count", deleted)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastRebuildStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"duration", stats.Duration.String(),
		"total_pets", stats.TotalPets,
		"snapshots_created", stats.SnapshotsCreated,
		"rank_changes", stats.RankChangesFound,
		"events_published", stats.EventsPublished,
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// rebuildScope rebuilds the ranking for one scope.
func (j *RebuildLeaderboardJob) rebuildScope(
	ctx context.Context,
	scope leaderboard.Scope,
	pets []*pet.Pet,
	stats *RebuildStats,
) error {
	prevSnapshot, _ := j.snapshots.GetLatestSnapshot(ctx, scope)

	ranking := leaderboard.NewRanking()
	for _, p := range pets {
		entry, err := leaderboard.NewEntry(
			leaderboard.Rank(1), // reassigned by SortByExperience
			p.ID,
			p.UserID,
			p.Name,
			int(p.Experience),
			int(p.Level),
		)
		if err != nil {
			continue
		}
		entry.StageEmoji = pet.StageFor(p.Level).Emoji
		entry.IsDead = p.IsDead
		entry.UpdatedAt = p.UpdatedAt

		if err := ranking.Add(entry); err != nil {
			j.logger.Warn("failed to add entry to ranking",
				"pet_id", p.ID,
				"error", err,
			)
		}
	}

	ranking.SortByExperience()

	newSnapshot := leaderboard.NewSnapshot(uuid.New().String(), scope, ranking)

	diff := leaderboard.CalculateDiff(prevSnapshot, newSnapshot)
	for petID, change := range diff.Changes {
		if change == 0 {
			continue
		}
		stats.RankChangesFound++

		entry := newSnapshot.GetByPetID(petID)
		if entry != nil {
			entry.RankChange = change
		}

		// Глобальные сдвиги публикуются; политика уведомлений
		// (порог, топ-3/топ-10) остаётся в обработчике события.
		if j.config.PublishRankChanges && scope.IsGlobal() {
			j.publishRankChange(entry, change, scope, stats)
		}
	}
	for _, tc := range diff.TopChanges {
		if tc.IsEntered() {
			stats.TopEntries++
		}
		if tc.IsLeft() {
			stats.TopExits++
		}
	}

	if err := j.snapshots.SaveSnapshot(ctx, newSnapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	stats.SnapshotsCreated++

	if err := j.cache.Rebuild(ctx, scope, newSnapshot.Entries); err != nil {
		j.logger.Warn("failed to rebuild hot ranking",
			"scope", scope.String(),
			"error", err,
		)
	}

	j.saveRankHistory(ctx, scope, newSnapshot)

	j.logger.Debug("leaderboard rebuilt",
		"scope", scope.String(),
		"entries", newSnapshot.Count(),
	)

	return nil
}

// publishRankChange emits a RankChangedEvent for one moved entry.
func (j *RebuildLeaderboardJob) publishRankChange(
	entry *leaderboard.Entry,
	change leaderboard.RankChange,
	scope leaderboard.Scope,
	stats *RebuildStats,
) {
	if j.eventPublisher == nil || entry == nil {
		return
	}

	// Положительный сдвиг = подъём, значит старый ранг был больше.
	oldRank := int(entry.Rank) + int(change)
	event := shared.NewRankChangedEvent(
		entry.PetID, entry.UserID, entry.PetName,
		oldRank, int(entry.Rank), scope.String(),
	)
	if err := j.eventPublisher.Publish(event); err != nil {
		j.logger.Warn("failed to publish rank changed event",
			"pet_id", entry.PetID,
			"error", err,
		)
		return
	}
	stats.EventsPublished++
}

// saveRankHistory persists history points for the top entries.
func (j *RebuildLeaderboardJob) saveRankHistory(
	ctx context.Context,
	scope leaderboard.Scope,
	snapshot *leaderboard.Snapshot,
) {
	if j.config.HistoryTopN <= 0 {
		return
	}

	recordedAt := snapshot.CreatedAt
	for _, entry := range snapshot.Top(j.config.HistoryTopN) {
		err := j.snapshots.SaveRankHistory(ctx, leaderboard.RankHistoryEntry{
			PetID:      entry.PetID,
			Scope:      scope,
			Rank:       entry.Rank,
			Experience: entry.Experience,
			RecordedAt: recordedAt,
		})
		if err != nil {
			j.logger.Warn("failed to save rank history",
				"pet_id", entry.PetID,
				"error", err,
			)
		}
	}
}

// getAllPets walks the pet table page by page, dead pets included.
func (j *RebuildLeaderboardJob) getAllPets(ctx context.Context) ([]*pet.Pet, error) {
	const pageSize = 500

	all := make([]*pet.Pet, 0, pageSize)
	for offset := 0; ; offset += pageSize {
		opts := pet.DefaultListOptions().
			WithOffset(offset).
			WithLimit(pageSize).
			WithDead()
		batch, err := j.petRepo.GetAll(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			return all, nil
		}
	}
}

// groupByClassroom buckets pets by their owner's classroom memberships.
// A pet can appear in several buckets when the owner is in several classes.
func (j *RebuildLeaderboardJob) groupByClassroom(ctx context.Context, pets []*pet.Pet) map[string][]*pet.Pet {
	buckets := make(map[string][]*pet.Pet)
	for _, p := range pets {
		memberships, err := j.classroomRepo.GetMemberships(ctx, p.UserID)
		if err != nil {
			j.logger.Warn("failed to load memberships",
				"user_id", p.UserID,
				"error", err,
			)
			continue
		}
		for _, m := range memberships {
			buckets[m.ClassroomID] = append(buckets[m.ClassroomID], p)
		}
	}
	return buckets
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastRebuildStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
