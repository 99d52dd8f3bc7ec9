// Package study contains domain entities and business logic for
// study notes and exam material selection.
package study

import (
	"context"
	"time"
)

// Repository defines the interface for study log persistence.
// This interface is implemented by the infrastructure layer.
// The domain layer has no knowledge of the actual storage mechanism.
type Repository interface {
	// Log operations

	// SaveLog persists a study log.
	SaveLog(ctx context.Context, log *Log) error

	// GetLog returns a specific study log by ID.
	GetLog(ctx context.Context, id string) (*Log, error)

	// GetLogsByUser returns a user's study logs, newest first.
	GetLogsByUser(ctx context.Context, userID string, limit int) ([]*Log, error)

	// DeleteLog removes a study log.
	DeleteLog(ctx context.Context, id string) error

	// Window maintenance

	// CountByUser returns the number of stored logs for a user.
	CountByUser(ctx context.Context, userID string) (int, error)

	// GetOldestLog returns the oldest stored log for a user, if any.
	GetOldestLog(ctx context.Context, userID string) (*Log, error)

	// EvictOldest removes the user's oldest logs until at most keep
	// remain. Returns the evicted logs so callers can apply the
	// intelligence loss for forgotten notes.
	EvictOldest(ctx context.Context, userID string, keep int) ([]*Log, error)

	// Analytics

	// GetLogsInRange returns a user's logs within a time range, newest first.
	GetLogsInRange(ctx context.Context, userID string, from, to time.Time) ([]*Log, error)

	// CountSince returns how many logs a user saved since the given time.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}
