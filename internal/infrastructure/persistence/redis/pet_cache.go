package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

// ══════════════════════════════════════════════════════════════════════════════
// PET CACHE
// ══════════════════════════════════════════════════════════════════════════════

// PetCache implements pet.Cache using the generic Redis Cache.
//
// Каждый питомец кешируется под двумя ключами: по его ID и по ID владельца.
// Один владелец - один питомец, поэтому оба ключа указывают на тот же объект.
type PetCache struct {
	cache *Cache
}

// NewPetCache creates a new PetCache.
func NewPetCache(cache *Cache) *PetCache {
	return &PetCache{cache: cache}
}

// Get gets a pet from cache by pet ID.
func (pc *PetCache) Get(ctx context.Context, petID string) (*pet.Pet, error) {
	var p pet.Pet
	if err := pc.cache.Get(ctx, PetKey(petID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores a pet in cache under both keys.
func (pc *PetCache) Set(ctx context.Context, p *pet.Pet, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	if err := pc.cache.Set(ctx, PetKey(p.ID), p, ttl); err != nil {
		return err
	}
	return pc.cache.Set(ctx, PetOwnerKey(p.UserID), p, ttl)
}

// GetByUserID gets a pet from cache by owner ID.
func (pc *PetCache) GetByUserID(ctx context.Context, userID string) (*pet.Pet, error) {
	var p pet.Pet
	if err := pc.cache.Get(ctx, PetOwnerKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetByUserID stores a pet in cache. Both keys are written, so the two
// lookup paths never go stale relative to each other.
func (pc *PetCache) SetByUserID(ctx context.Context, p *pet.Pet, ttl time.Duration) error {
	return pc.Set(ctx, p, ttl)
}

// Invalidate removes all cache entries for a pet.
// The owner key is resolved through the pet key; if the pet key already
// expired, the owner key expires on its own TTL.
func (pc *PetCache) Invalidate(ctx context.Context, petID string) error {
	p, err := pc.Get(ctx, petID)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return pc.cache.Delete(ctx, PetKey(petID))
		}
		return err
	}
	return pc.cache.Delete(ctx, PetKey(petID), PetOwnerKey(p.UserID))
}

// InvalidateAll clears the whole pet cache.
func (pc *PetCache) InvalidateAll(ctx context.Context) error {
	return pc.cache.DeleteByPattern(ctx, PrefixPet+"*")
}
