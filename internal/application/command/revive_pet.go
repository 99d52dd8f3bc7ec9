package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIVE PET COMMAND
// Spends a revive potion to bring a dead pet back. Revival clears the
// death flags and sets hunger to the midpoint; other stats keep the
// values they died with.
// ══════════════════════════════════════════════════════════════════════════════

// RevivePetCommand contains the data to revive a pet.
type RevivePetCommand struct {
	// UserID is the pet owner.
	UserID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RevivePetCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("revive_pet: user_id is required")
	}
	return nil
}

// RevivePetResult contains the result of reviving a pet.
type RevivePetResult struct {
	// Pet is the revived pet.
	Pet *pet.Pet

	// PotionsLeft is the revive potion count after use.
	PotionsLeft int

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RevivePetHandler handles the RevivePetCommand.
type RevivePetHandler struct {
	petRepo        pet.Repository
	userRepo       user.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
}

// NewRevivePetHandler creates a new RevivePetHandler.
func NewRevivePetHandler(
	petRepo pet.Repository,
	userRepo user.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
) *RevivePetHandler {
	return &RevivePetHandler{
		petRepo:        petRepo,
		userRepo:       userRepo,
		sessions:       sessions,
		petCache:       petCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the revive pet command.
func (h *RevivePetHandler) Handle(ctx context.Context, cmd RevivePetCommand) (*RevivePetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("revive_pet: validation failed: %w", err)
	}

	now := time.Now().UTC()

	p, err := h.petRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("revive_pet: failed to load pet: %w", err)
	}

	// A pet computed dead but not yet flagged still counts: settle the
	// flag first so the revival has a DiedAt to clear.
	sessionStart, err := h.sessions.SessionStart(ctx, cmd.UserID)
	if err != nil {
		sessionStart = time.Time{}
	}
	if dead, _ := p.EvaluateDeath(sessionStart, now); dead {
		p.ConfirmDeath(now)
	}
	if !p.IsDead {
		return nil, fmt.Errorf("revive_pet: %w", pet.ErrNotDead)
	}

	owner, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("revive_pet: failed to load user: %w", err)
	}
	if err := owner.UseRevivePotion(); err != nil {
		return nil, fmt.Errorf("revive_pet: %w", err)
	}

	if err := p.Revive(now); err != nil {
		return nil, fmt.Errorf("revive_pet: %w", err)
	}

	// Pet first: a failed pet write must not burn the potion.
	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("revive_pet: failed to save pet: %w", err)
	}
	if err := h.userRepo.Update(ctx, owner); err != nil {
		return nil, fmt.Errorf("revive_pet: failed to save user: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	event := shared.NewPetRevivedEvent(p.ID, p.UserID, p.Name)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &RevivePetResult{
		Pet:         p,
		PotionsLeft: owner.Items.RevivePotion,
		Events:      []shared.Event{event},
	}, nil
}
