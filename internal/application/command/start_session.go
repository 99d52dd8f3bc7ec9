package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// START SESSION COMMAND
// Marks the beginning of continuous play. Vital decay is computed
// against the session start, so a pet loses nothing while the app is
// closed; without an active session decay falls back to wall clock.
// ══════════════════════════════════════════════════════════════════════════════

// StartSessionCommand contains the data to start or refresh a session.
type StartSessionCommand struct {
	// UserID is the player.
	UserID string
}

// Validate validates the command.
func (c StartSessionCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("start_session: user_id is required")
	}
	return nil
}

// StartSessionResult contains the session state.
type StartSessionResult struct {
	// StartedAt is when the active session began. For a resumed
	// session this is the original start, not now.
	StartedAt time.Time

	// Resumed indicates an already active session was kept.
	Resumed bool
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartSessionHandler handles the StartSessionCommand.
type StartSessionHandler struct {
	sessions       pet.SessionTracker
	eventPublisher shared.EventPublisher
}

// NewStartSessionHandler creates a new StartSessionHandler.
func NewStartSessionHandler(
	sessions pet.SessionTracker,
	eventPublisher shared.EventPublisher,
) *StartSessionHandler {
	return &StartSessionHandler{
		sessions:       sessions,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the start session command.
func (h *StartSessionHandler) Handle(ctx context.Context, cmd StartSessionCommand) (*StartSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("start_session: validation failed: %w", err)
	}

	now := time.Now().UTC()

	startedAt, err := h.sessions.StartSession(ctx, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("start_session: %w", err)
	}

	resumed := startedAt.Before(now)
	if !resumed {
		_ = h.eventPublisher.Publish(shared.NewSessionStartedEvent(cmd.UserID, startedAt))
	}

	return &StartSessionResult{
		StartedAt: startedAt,
		Resumed:   resumed,
	}, nil
}
