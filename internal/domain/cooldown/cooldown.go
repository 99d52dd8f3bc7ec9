// Package cooldown contains the gating rules that throttle pet
// activities: studying, chatting and minigames. The gate itself is
// pure arithmetic over checkpoints; the per-game registry is an
// interface implemented by the infrastructure layer.
package cooldown

import (
	"context"
	"errors"
	"time"
)

// Activity cooldown windows. The web client enforces the same windows
// locally; the server is the source of truth.
const (
	// Study is the minimum gap between saved study notes.
	Study = time.Hour

	// Chat is the minimum gap between chat sessions.
	Chat = time.Hour

	// Minigame is the per-pet, per-game replay window.
	Minigame = 24 * time.Hour
)

// ErrOnCooldown is returned when an activity is attempted inside its window.
var ErrOnCooldown = errors.New("cooldown: activity is on cooldown")

// Gate decides whether an activity is allowed given its last checkpoint.
// A zero lastAt means the activity never happened and is always allowed.
func Gate(lastAt, now time.Time, window time.Duration) bool {
	if lastAt.IsZero() {
		return true
	}
	return now.Sub(lastAt) >= window
}

// Remaining returns how long until the activity unlocks.
// Zero means the activity is available now.
func Remaining(lastAt, now time.Time, window time.Duration) time.Duration {
	if lastAt.IsZero() {
		return 0
	}
	left := window - now.Sub(lastAt)
	if left < 0 {
		return 0
	}
	return left
}

// Check is Gate with an error result, for call sites that propagate it.
func Check(lastAt, now time.Time, window time.Duration) error {
	if !Gate(lastAt, now, window) {
		return ErrOnCooldown
	}
	return nil
}

// Registry tracks per-pet, per-game minigame checkpoints.
// Implemented over Redis in infrastructure; an in-memory variant
// exists for tests and single-node deployments.
type Registry interface {
	// LastPlayed returns the checkpoint for a pet+game pair.
	// Zero time means the game was never played.
	LastPlayed(ctx context.Context, petID, gameID string) (time.Time, error)

	// MarkPlayed records a play at the given time.
	MarkPlayed(ctx context.Context, petID, gameID string, at time.Time) error

	// Clear removes the checkpoint (used when a pet is replaced).
	Clear(ctx context.Context, petID string) error
}
