package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// LeaderboardService reconciles the hot Redis ranking with the durable
// Postgres snapshots. Query handlers read the cache directly; this
// service is for the paths that need a fallback or a rebuild.
type LeaderboardService struct {
	repo   leaderboard.Repository
	cache  leaderboard.Cache
	logger *slog.Logger
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(repo leaderboard.Repository, cache leaderboard.Cache, logger *slog.Logger) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{
		repo:   repo,
		cache:  cache,
		logger: logger.With("component", "leaderboard_service"),
	}
}

// GetPetRank returns the pet's rank in the scope, falling back to the
// latest snapshot when the hot ranking does not know the pet.
// Возвращает leaderboard.ErrPetNotRanked, если питомца нет нигде.
func (s *LeaderboardService) GetPetRank(ctx context.Context, scope leaderboard.Scope, petID string) (leaderboard.Rank, error) {
	if s.cache != nil {
		rank, err := s.cache.GetRank(ctx, scope, petID)
		if err == nil {
			return rank, nil
		}
		if !errors.Is(err, leaderboard.ErrPetNotRanked) {
			s.logger.Warn("rank cache read failed, falling back to snapshot",
				"scope", scope,
				"pet_id", petID,
				"error", err,
			)
		}
	}

	snapshot, err := s.repo.GetLatestSnapshot(ctx, scope)
	if err != nil {
		if errors.Is(err, shared.ErrSnapshotNotFound) {
			return 0, leaderboard.ErrPetNotRanked
		}
		return 0, fmt.Errorf("load snapshot for rank: %w", err)
	}

	rank := snapshot.GetRank(petID)
	if !rank.IsValid() {
		return 0, leaderboard.ErrPetNotRanked
	}
	return rank, nil
}

// WarmCache rebuilds the hot ranking of a scope from the latest snapshot.
// Missing snapshot is not an error: an empty scope simply has nothing to warm.
func (s *LeaderboardService) WarmCache(ctx context.Context, scope leaderboard.Scope) error {
	if s.cache == nil {
		return nil
	}

	snapshot, err := s.repo.GetLatestSnapshot(ctx, scope)
	if err != nil {
		if errors.Is(err, shared.ErrSnapshotNotFound) {
			return nil
		}
		return fmt.Errorf("load snapshot for warmup: %w", err)
	}

	if err := s.cache.Rebuild(ctx, scope, snapshot.Entries); err != nil {
		return fmt.Errorf("rebuild rank cache: %w", err)
	}
	s.logger.Info("rank cache warmed",
		"scope", scope,
		"entries", len(snapshot.Entries),
	)
	return nil
}

// InvalidateCache drops the hot ranking of a scope.
func (s *LeaderboardService) InvalidateCache(ctx context.Context, scope leaderboard.Scope) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, scope)
}
