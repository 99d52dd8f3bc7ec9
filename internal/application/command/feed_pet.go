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
// FEED PET COMMAND
// Feeds the pet one portion from its inventory. Live hunger and
// nutrients are derived at the moment of feeding and become the new
// stored checkpoints.
// ══════════════════════════════════════════════════════════════════════════════

// FeedPetCommand contains the data to feed a pet.
type FeedPetCommand struct {
	// UserID is the pet owner.
	UserID string

	// FoodID is the catalog identifier of the portion to feed.
	FoodID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c FeedPetCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("feed_pet: user_id is required")
	}
	if c.FoodID == "" {
		return errors.New("feed_pet: food_id is required")
	}
	return nil
}

// FeedPetResult contains the result of feeding a pet.
type FeedPetResult struct {
	// Hunger is the hunger level after feeding.
	Hunger int

	// Nutrition holds the nutrient levels after feeding.
	Nutrition pet.Nutrition

	// RemainingPortions is how many portions of this food are left.
	RemainingPortions int

	// ExpGained is the experience awarded for the feeding.
	ExpGained int

	// LeveledUp indicates the feeding pushed the pet over a level.
	LeveledUp bool

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// FeedPetHandler handles the FeedPetCommand.
type FeedPetHandler struct {
	petRepo        pet.Repository
	sessions       pet.SessionTracker
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
}

// NewFeedPetHandler creates a new FeedPetHandler.
func NewFeedPetHandler(
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
) *FeedPetHandler {
	return &FeedPetHandler{
		petRepo:        petRepo,
		sessions:       sessions,
		petCache:       petCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the feed pet command.
func (h *FeedPetHandler) Handle(ctx context.Context, cmd FeedPetCommand) (*FeedPetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("feed_pet: validation failed: %w", err)
	}

	food, ok := pet.FoodByID(cmd.FoodID)
	if !ok {
		return nil, shared.NewDomainError("pet", "feed", shared.ErrNotFound,
			fmt.Sprintf("unknown food %q", cmd.FoodID))
	}

	now := time.Now().UTC()

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("feed_pet: %w", err)
	}
	p := live.Pet

	liveHunger := p.CurrentHunger(live.SessionStart, now)
	liveNutrition := p.CurrentNutrition(live.SessionStart, now)

	oldLevel := p.Level
	oldStage := pet.StageFor(oldLevel)

	if err := p.Feed(food, liveHunger, liveNutrition, now); err != nil {
		return nil, fmt.Errorf("feed_pet: %w", err)
	}
	leveled := p.GainExperience(pet.ExpPerFeed)

	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("feed_pet: failed to save pet: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	event := shared.NewPetFedEvent(p.ID, p.UserID, food.ID, p.Hunger)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)
	events := []shared.Event{event}

	if leveled {
		newStage := pet.StageFor(p.Level)
		levelUp := shared.NewLevelUpEvent(
			p.ID, p.UserID, p.Name,
			int(oldLevel), int(p.Level),
			newStage != oldStage, newStage.Name,
		)
		if cmd.CorrelationID != "" {
			levelUp.BaseEvent = levelUp.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.eventPublisher.Publish(levelUp)
		events = append(events, levelUp)
	}

	return &FeedPetResult{
		Hunger:            p.Hunger,
		Nutrition:         p.Nutrition.Clone(),
		RemainingPortions: p.FoodInventory[food.ID],
		ExpGained:         pet.ExpPerFeed,
		LeveledUp:         leveled,
		Events:            events,
	}, nil
}
