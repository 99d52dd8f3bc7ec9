package chat

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no active session exists.
var ErrSessionNotFound = errors.New("chat: session not found")

// Store keeps the active conversation between exchanges. Sessions are
// short-lived; implementations hold them in Redis with a TTL matching
// the chat cooldown, so an abandoned session expires on its own.
type Store interface {
	// Get returns the user's active session.
	// Returns ErrSessionNotFound if none exists or it has expired.
	Get(ctx context.Context, userID string) (*Session, error)

	// Save persists the session with the given TTL.
	Save(ctx context.Context, s *Session, ttl time.Duration) error

	// Delete ends the session early.
	Delete(ctx context.Context, userID string) error
}
