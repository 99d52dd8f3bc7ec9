package command

import (
	"context"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIVE PET RESOLUTION
// Death is derivable at any time from checkpoints, so every activity
// command settles it before acting: a pet computed dead gets its sticky
// flag persisted exactly once, and the command fails with ErrDead.
// ══════════════════════════════════════════════════════════════════════════════

// livePet is the resolved state an activity command operates on.
type livePet struct {
	Pet          *pet.Pet
	SessionStart time.Time
}

// resolveLivePet loads the user's pet, derives death against the active
// session and persists the flag if it just became true. Commands that
// mutate the pet must call this first.
func resolveLivePet(
	ctx context.Context,
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	publisher shared.EventPublisher,
	userID string,
	now time.Time,
) (*livePet, error) {
	p, err := petRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pet: %w", err)
	}

	sessionStart, err := sessions.SessionStart(ctx, userID)
	if err != nil {
		// A tracker outage degrades to wall-clock decay, not a failure.
		sessionStart = time.Time{}
	}

	dead, cause := p.EvaluateDeath(sessionStart, now)
	if dead {
		if p.ConfirmDeath(now) {
			if err := petRepo.Update(ctx, p); err != nil {
				return nil, fmt.Errorf("failed to persist pet death: %w", err)
			}
			if publisher != nil {
				_ = publisher.Publish(shared.NewPetDiedEvent(
					p.ID, p.UserID, p.Name, string(cause), int(p.Level), p.DiedAt,
				))
			}
		}
		return nil, pet.ErrDead
	}

	return &livePet{Pet: p, SessionStart: sessionStart}, nil
}
