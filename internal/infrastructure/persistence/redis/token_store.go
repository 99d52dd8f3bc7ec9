package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH TOKEN STORE
// ══════════════════════════════════════════════════════════════════════════════

// TokenStore выдаёт и проверяет bearer-токены. Токен - это opaque UUID,
// ключ в Redis хранит ID пользователя. Протухание по TTL, продлевается
// на каждом успешном Resolve.
type TokenStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewTokenStore creates a token store backed by the given cache.
// A non-positive TTL falls back to TTLAuthToken.
func NewTokenStore(cache *Cache, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = TTLAuthToken
	}
	return &TokenStore{cache: cache, ttl: ttl}
}

// Issue creates a fresh token for the user and returns it.
func (s *TokenStore) Issue(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", shared.ErrInvalidID
	}

	token := uuid.New().String()
	if err := s.cache.SetString(ctx, tokenKey(token), userID, s.ttl); err != nil {
		return "", fmt.Errorf("token store: issue: %w", err)
	}
	return token, nil
}

// Resolve maps a token back to the user ID and slides the expiry.
// Returns shared.ErrUnauthorized for unknown or expired tokens.
func (s *TokenStore) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", shared.ErrUnauthorized
	}

	userID, err := s.cache.GetString(ctx, tokenKey(token))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", shared.ErrUnauthorized
		}
		return "", fmt.Errorf("token store: resolve: %w", err)
	}

	// Best-effort slide. A failed EXPIRE only shortens the session.
	_ = s.cache.Expire(ctx, tokenKey(token), s.ttl)

	return userID, nil
}

// Revoke invalidates a token. Unknown tokens are not an error.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.cache.Delete(ctx, tokenKey(token)); err != nil {
		return fmt.Errorf("token store: revoke: %w", err)
	}
	return nil
}

func tokenKey(token string) string {
	return PrefixAuthToken + token
}
