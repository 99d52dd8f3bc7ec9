package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION TRACKER
// ══════════════════════════════════════════════════════════════════════════════

// SessionTracker implements pet.SessionTracker on Redis.
//
// Каждая активная сессия - один ключ session:{userID} со временем старта
// и TTL. Распад ресурсов считается от этого старта; когда ключ истекает,
// следующий запрос создаёт новую сессию и базой распада снова становится
// чекпоинт.
type SessionTracker struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionTracker creates a SessionTracker with the given session TTL.
// A non-positive TTL falls back to TTLSession.
func NewSessionTracker(cache *Cache, ttl time.Duration) *SessionTracker {
	if ttl <= 0 {
		ttl = TTLSession
	}
	return &SessionTracker{cache: cache, ttl: ttl}
}

// StartSession records the session start if none is active and returns the
// effective start time. SETNX keeps concurrent first requests from
// double-starting: the loser reads the winner's timestamp.
func (t *SessionTracker) StartSession(ctx context.Context, userID string, at time.Time) (time.Time, error) {
	if userID == "" {
		return time.Time{}, ErrCacheKeyEmpty
	}

	key := SessionKey(userID)
	value := at.UTC().Format(time.RFC3339Nano)

	set, err := t.cache.SetNX(ctx, key, value, t.ttl)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to start session: %w", err)
	}
	if set {
		return at.UTC(), nil
	}

	existing, err := t.SessionStart(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if existing.IsZero() {
		// Expired between SETNX and GET, retry once with a plain set.
		if err := t.cache.SetString(ctx, key, value, t.ttl); err != nil {
			return time.Time{}, fmt.Errorf("failed to start session: %w", err)
		}
		return at.UTC(), nil
	}
	return existing, nil
}

// SessionStart returns the active session's start time.
// A zero time means no session is active.
func (t *SessionTracker) SessionStart(ctx context.Context, userID string) (time.Time, error) {
	if userID == "" {
		return time.Time{}, ErrCacheKeyEmpty
	}

	value, err := t.cache.GetString(ctx, SessionKey(userID))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to read session start: %w", err)
	}

	start, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt session start value %q: %w", value, err)
	}
	return start, nil
}

// EndSession terminates the session.
func (t *SessionTracker) EndSession(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrCacheKeyEmpty
	}
	return t.cache.Delete(ctx, SessionKey(userID))
}

// Touch extends the TTL of an active session. No-op if none is active.
func (t *SessionTracker) Touch(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrCacheKeyEmpty
	}
	return t.cache.Expire(ctx, SessionKey(userID), t.ttl)
}

// ActiveSessions returns the user IDs with an active session.
// Expired keys drop out of the scan on their own.
func (t *SessionTracker) ActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := t.cache.ScanKeys(ctx, PrefixSession+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	userIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		userIDs = append(userIDs, strings.TrimPrefix(key, PrefixSession))
	}
	return userIDs, nil
}

// ActiveCount returns the number of active sessions.
func (t *SessionTracker) ActiveCount(ctx context.Context) (int, error) {
	userIDs, err := t.ActiveSessions(ctx)
	if err != nil {
		return 0, err
	}
	return len(userIDs), nil
}
