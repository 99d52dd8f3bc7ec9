package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:score:{scope}" stores petID -> experience
//   - Hash "leaderboard:info:{scope}" stores petID -> entry JSON
//
// Ранги читаются из sorted set за O(log N); хэш держит метаданные записи
// (имя, стадия, флаг смерти), которые нужны для отображения топа без
// похода в Postgres.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	// keyLeaderboardScore is the sorted set for experience rankings.
	keyLeaderboardScore = PrefixLeaderboard + "score:"

	// keyLeaderboardInfo is the hash for entry details.
	keyLeaderboardInfo = PrefixLeaderboard + "info:"
)

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// cachedEntry is the JSON wire form of a cached leaderboard entry.
type cachedEntry struct {
	PetID      string    `json:"pet_id"`
	UserID     string    `json:"user_id"`
	PetName    string    `json:"pet_name"`
	Experience int       `json:"experience"`
	Level      int       `json:"level"`
	StageEmoji string    `json:"stage_emoji"`
	IsDead     bool      `json:"is_dead"`
	RankChange int       `json:"rank_change"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func scoreKey(scope leaderboard.Scope) string {
	return keyLeaderboardScore + string(scope)
}

func infoKey(scope leaderboard.Scope) string {
	return keyLeaderboardInfo + string(scope)
}

// ─────────────────────────────────────────────────────────────────────────────
// WRITE OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// UpdateScore updates a pet's experience in the hot ranking.
// O(log N). The info hash keeps whatever metadata the last rebuild wrote;
// GetTop synthesizes a minimal entry for pets updated since.
func (l *LeaderboardCache) UpdateScore(ctx context.Context, scope leaderboard.Scope, petID string, experience int) error {
	if petID == "" {
		return leaderboard.ErrInvalidPetID
	}

	pipe := l.cache.Client().Pipeline()
	key := scoreKey(scope)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(experience),
		Member: petID,
	})
	pipe.Expire(ctx, key, TTLLeaderboardCache)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	return nil
}

// Rebuild atomically replaces the hot ranking for a scope.
func (l *LeaderboardCache) Rebuild(ctx context.Context, scope leaderboard.Scope, entries []*leaderboard.Entry) error {
	sKey := scoreKey(scope)
	iKey := infoKey(scope)

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, sKey, iKey)

	if len(entries) > 0 {
		zMembers := make([]redis.Z, 0, len(entries))
		hashData := make(map[string]interface{}, len(entries))

		for _, e := range entries {
			if e == nil || e.PetID == "" {
				continue
			}

			zMembers = append(zMembers, redis.Z{
				Score:  float64(e.Experience),
				Member: e.PetID,
			})

			data, err := json.Marshal(cachedEntry{
				PetID:      e.PetID,
				UserID:     e.UserID,
				PetName:    e.PetName,
				Experience: e.Experience,
				Level:      e.Level,
				StageEmoji: e.StageEmoji,
				IsDead:     e.IsDead,
				RankChange: int(e.RankChange),
				UpdatedAt:  e.UpdatedAt,
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
			}
			hashData[e.PetID] = data
		}

		if len(zMembers) > 0 {
			pipe.ZAdd(ctx, sKey, zMembers...)
			pipe.HSet(ctx, iKey, hashData)
		}
		pipe.Expire(ctx, sKey, TTLLeaderboardCache)
		pipe.Expire(ctx, iKey, TTLLeaderboardCache)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to rebuild leaderboard: %w", err)
	}
	return nil
}

// Remove takes a pet out of the hot ranking.
func (l *LeaderboardCache) Remove(ctx context.Context, scope leaderboard.Scope, petID string) error {
	if petID == "" {
		return leaderboard.ErrInvalidPetID
	}

	pipe := l.cache.Client().Pipeline()
	pipe.ZRem(ctx, scoreKey(scope), petID)
	pipe.HDel(ctx, infoKey(scope), petID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove from leaderboard: %w", err)
	}
	return nil
}

// Invalidate drops the scope's cache entirely. The next read falls back
// to the Postgres snapshot until the rebuild job repopulates it.
func (l *LeaderboardCache) Invalidate(ctx context.Context, scope leaderboard.Scope) error {
	return l.cache.Delete(ctx, scoreKey(scope), infoKey(scope))
}

// ─────────────────────────────────────────────────────────────────────────────
// READ OPERATIONS
// ─────────────────────────────────────────────────────────────────────────────

// GetTop returns the top N entries from the hot ranking.
// O(log N + M) where M is the limit.
func (l *LeaderboardCache) GetTop(ctx context.Context, scope leaderboard.Scope, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		return []*leaderboard.Entry{}, nil
	}

	zs, err := l.cache.Client().ZRevRangeWithScores(ctx, scoreKey(scope), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read top: %w", err)
	}
	if len(zs) == 0 {
		return []*leaderboard.Entry{}, nil
	}

	petIDs := make([]string, 0, len(zs))
	for _, z := range zs {
		petIDs = append(petIDs, z.Member.(string))
	}

	infos, err := l.cache.Client().HMGet(ctx, infoKey(scope), petIDs...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read entry info: %w", err)
	}

	entries := make([]*leaderboard.Entry, 0, len(zs))
	for i, z := range zs {
		entry := &leaderboard.Entry{
			Rank:       leaderboard.Rank(i + 1),
			PetID:      petIDs[i],
			Experience: int(z.Score),
		}

		if raw, ok := infos[i].(string); ok && raw != "" {
			var ce cachedEntry
			if err := json.Unmarshal([]byte(raw), &ce); err == nil {
				entry.UserID = ce.UserID
				entry.PetName = ce.PetName
				entry.Level = ce.Level
				entry.StageEmoji = ce.StageEmoji
				entry.IsDead = ce.IsDead
				entry.RankChange = leaderboard.RankChange(ce.RankChange)
				entry.UpdatedAt = ce.UpdatedAt
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// GetRank returns a pet's current rank (1-based) in the hot ranking.
func (l *LeaderboardCache) GetRank(ctx context.Context, scope leaderboard.Scope, petID string) (leaderboard.Rank, error) {
	if petID == "" {
		return 0, leaderboard.ErrInvalidPetID
	}

	rank, err := l.cache.Client().ZRevRank(ctx, scoreKey(scope), petID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, leaderboard.ErrPetNotRanked
		}
		return 0, fmt.Errorf("failed to read rank: %w", err)
	}

	return leaderboard.Rank(rank + 1), nil
}
