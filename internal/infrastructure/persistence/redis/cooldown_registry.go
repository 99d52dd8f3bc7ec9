package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
)

// ══════════════════════════════════════════════════════════════════════════════
// COOLDOWN REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// CooldownRegistry implements cooldown.Registry on Redis.
//
// Чекпоинт хранится под ключом cooldown:{petID}:{gameID} с TTL равным окну
// кулдауна: истёкший ключ означает, что игра снова доступна, и сам Redis
// чистит чекпоинты за нас.
type CooldownRegistry struct {
	cache  *Cache
	window time.Duration
}

// NewCooldownRegistry creates a CooldownRegistry.
// A non-positive window falls back to cooldown.Minigame.
func NewCooldownRegistry(cache *Cache, window time.Duration) *CooldownRegistry {
	if window <= 0 {
		window = cooldown.Minigame
	}
	return &CooldownRegistry{cache: cache, window: window}
}

// LastPlayed returns the checkpoint for a pet+game pair.
// Zero time means the game is off cooldown.
func (r *CooldownRegistry) LastPlayed(ctx context.Context, petID, gameID string) (time.Time, error) {
	if petID == "" || gameID == "" {
		return time.Time{}, ErrCacheKeyEmpty
	}

	value, err := r.cache.GetString(ctx, CooldownKey(petID, gameID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read cooldown: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt cooldown value %q: %w", value, err)
	}
	return at, nil
}

// MarkPlayed records a play at the given time.
func (r *CooldownRegistry) MarkPlayed(ctx context.Context, petID, gameID string, at time.Time) error {
	if petID == "" || gameID == "" {
		return ErrCacheKeyEmpty
	}

	value := at.UTC().Format(time.RFC3339Nano)
	if err := r.cache.SetString(ctx, CooldownKey(petID, gameID), value, r.window); err != nil {
		return fmt.Errorf("failed to mark played: %w", err)
	}
	return nil
}

// Clear removes all checkpoints for a pet. Called when a pet is replaced,
// so the successor starts with every game available.
func (r *CooldownRegistry) Clear(ctx context.Context, petID string) error {
	if petID == "" {
		return ErrCacheKeyEmpty
	}
	return r.cache.DeleteByPattern(ctx, PrefixCooldown+petID+":*")
}
