package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAY MINIGAME COMMAND
// Records a finished minigame round: boredom drops, points are paid
// out, and the pet+game pair goes on its daily cooldown. Boredom has
// no stored magnitude, so the new value is encoded by rewinding the
// last-played checkpoint.
// ══════════════════════════════════════════════════════════════════════════════

// PlayMinigameCommand contains the data to record a minigame round.
type PlayMinigameCommand struct {
	// UserID is the pet owner.
	UserID string

	// GameID is the catalog identifier of the game played.
	GameID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c PlayMinigameCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("play_minigame: user_id is required")
	}
	if c.GameID == "" {
		return errors.New("play_minigame: game_id is required")
	}
	return nil
}

// PlayMinigameResult contains the result of a minigame round.
type PlayMinigameResult struct {
	// Game is the catalog entry that was played.
	Game pet.Minigame

	// Boredom is the boredom level after playing.
	Boredom int

	// PointsEarned is the points reward.
	PointsEarned pet.Points

	// PointsBalance is the balance after the reward.
	PointsBalance pet.Points

	// NextPlayableAt is when this game unlocks again.
	NextPlayableAt time.Time

	// Events contains domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// PlayMinigameHandler handles the PlayMinigameCommand.
type PlayMinigameHandler struct {
	petRepo        pet.Repository
	sessions       pet.SessionTracker
	cooldowns      cooldown.Registry
	petCache       pet.Cache
	eventPublisher shared.EventPublisher
}

// NewPlayMinigameHandler creates a new PlayMinigameHandler.
func NewPlayMinigameHandler(
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	cooldowns cooldown.Registry,
	petCache pet.Cache,
	eventPublisher shared.EventPublisher,
) *PlayMinigameHandler {
	return &PlayMinigameHandler{
		petRepo:        petRepo,
		sessions:       sessions,
		cooldowns:      cooldowns,
		petCache:       petCache,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the play minigame command.
func (h *PlayMinigameHandler) Handle(ctx context.Context, cmd PlayMinigameCommand) (*PlayMinigameResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("play_minigame: validation failed: %w", err)
	}

	game, ok := pet.MinigameByID(cmd.GameID)
	if !ok {
		return nil, shared.NewDomainError("pet", "play", shared.ErrNotFound,
			fmt.Sprintf("unknown game %q", cmd.GameID))
	}

	now := time.Now().UTC()

	live, err := resolveLivePet(ctx, h.petRepo, h.sessions, h.eventPublisher, cmd.UserID, now)
	if err != nil {
		return nil, fmt.Errorf("play_minigame: %w", err)
	}
	p := live.Pet

	lastPlayed, err := h.cooldowns.LastPlayed(ctx, p.ID, game.ID)
	if err != nil {
		return nil, fmt.Errorf("play_minigame: failed to read cooldown: %w", err)
	}
	if err := cooldown.Check(lastPlayed, now, cooldown.Minigame); err != nil {
		return nil, fmt.Errorf("play_minigame: %w (%s left)",
			err, cooldown.Remaining(lastPlayed, now, cooldown.Minigame).Round(time.Minute))
	}

	liveBoredom := p.CurrentBoredom(live.SessionStart, now)
	p.RecordPlay(liveBoredom, game.BoredomReduction, game.PointsReward, now)

	if err := h.petRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("play_minigame: failed to save pet: %w", err)
	}
	if err := h.cooldowns.MarkPlayed(ctx, p.ID, game.ID, now); err != nil {
		return nil, fmt.Errorf("play_minigame: failed to start cooldown: %w", err)
	}
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, p.ID)
	}

	event := shared.NewPetPlayedEvent(p.ID, p.UserID, game.ID, p.CurrentBoredom(live.SessionStart, now))
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &PlayMinigameResult{
		Game:           game,
		Boredom:        p.CurrentBoredom(live.SessionStart, now),
		PointsEarned:   game.PointsReward,
		PointsBalance:  p.Points,
		NextPlayableAt: now.Add(cooldown.Minigame),
		Events:         []shared.Event{event},
	}, nil
}
