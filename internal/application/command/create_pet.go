// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE PET COMMAND
// Hatches a new pet for a user. A user owns at most one pet; replacing a
// dead one requires the 48-hour penalty window to have elapsed.
// ══════════════════════════════════════════════════════════════════════════════

// CreatePetCommand contains the data to create a pet.
type CreatePetCommand struct {
	// UserID is the owner of the new pet.
	UserID string

	// Name is the display name (1-10 runes).
	Name string

	// Sprite optionally pins the character sprite; random when empty.
	Sprite pet.CharacterSprite

	// Room optionally pins the room; random when empty.
	Room pet.RoomType

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CreatePetCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("create_pet: user_id is required")
	}
	if c.Name == "" {
		return errors.New("create_pet: name is required")
	}
	return nil
}

// CreatePetResult contains the result of creating a pet.
type CreatePetResult struct {
	// Pet is the freshly hatched pet.
	Pet *pet.Pet

	// Replaced indicates a dead predecessor was replaced.
	Replaced bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CreatePetHandler handles the CreatePetCommand.
type CreatePetHandler struct {
	petRepo        pet.Repository
	cooldowns      cooldown.Registry
	eventPublisher shared.EventPublisher
}

// NewCreatePetHandler creates a new CreatePetHandler.
func NewCreatePetHandler(
	petRepo pet.Repository,
	cooldowns cooldown.Registry,
	eventPublisher shared.EventPublisher,
) *CreatePetHandler {
	return &CreatePetHandler{
		petRepo:        petRepo,
		cooldowns:      cooldowns,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the create pet command.
func (h *CreatePetHandler) Handle(ctx context.Context, cmd CreatePetCommand) (*CreatePetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("create_pet: validation failed: %w", err)
	}

	now := time.Now().UTC()

	// A living pet blocks creation; a dead one gates it on the penalty window.
	existing, err := h.petRepo.GetByUserID(ctx, cmd.UserID)
	replaced := false
	if err == nil && existing != nil {
		if !existing.IsDead {
			return nil, shared.NewDomainError("pet", "create", shared.ErrAlreadyExists,
				"user already has a living pet")
		}
		if !existing.PenaltyElapsed(now) {
			return nil, shared.NewDomainError("pet", "create", shared.ErrForbidden,
				fmt.Sprintf("death penalty active for another %s", existing.PenaltyRemaining(now).Round(time.Minute)))
		}
		replaced = true
	}

	id := uuid.NewString()

	sprite := cmd.Sprite
	if !sprite.IsValid() {
		sprite = pet.PickRandomCharacter()
	}
	room := cmd.Room
	if !room.IsValid() {
		room = pet.PickRandomRoom()
	}

	newPet, err := pet.NewPet(pet.NewPetParams{
		ID:              id,
		UserID:          cmd.UserID,
		Name:            cmd.Name,
		CharacterSprite: sprite,
		RoomType:        room,
		MBTI:            pet.PickRandomMBTI(),
	})
	if err != nil {
		return nil, fmt.Errorf("create_pet: %w", err)
	}

	if replaced {
		// Replace swaps the dead record for the new one atomically.
		if err := h.petRepo.Replace(ctx, cmd.UserID, newPet); err != nil {
			return nil, fmt.Errorf("create_pet: failed to replace pet: %w", err)
		}
		// The predecessor's minigame checkpoints must not gate the newcomer.
		_ = h.cooldowns.Clear(ctx, existing.ID)
	} else {
		if err := h.petRepo.Create(ctx, newPet); err != nil {
			return nil, fmt.Errorf("create_pet: failed to save pet: %w", err)
		}
	}

	event := shared.NewPetCreatedEvent(
		newPet.ID,
		newPet.UserID,
		newPet.Name,
		string(newPet.CharacterSprite),
		string(newPet.MBTI),
		replaced,
	)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &CreatePetResult{
		Pet:      newPet,
		Replaced: replaced,
		Events:   []shared.Event{event},
	}, nil
}
