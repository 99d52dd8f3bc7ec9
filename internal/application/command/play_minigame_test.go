package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

func newPlayFixture(p *pet.Pet) (*PlayMinigameHandler, *fakePetRepo, *fakeCooldowns, *fakePublisher) {
	petRepo := newFakePetRepo(p)
	cooldowns := newFakeCooldowns()
	publisher := &fakePublisher{}
	h := NewPlayMinigameHandler(petRepo, newFakeSessions(), cooldowns, &fakePetCache{}, publisher)
	return h, petRepo, cooldowns, publisher
}

func TestPlayMinigame_ReducesBoredomAndPaysPoints(t *testing.T) {
	p := newTestPet(t, "u1")
	// 10 часов без игр: скука 20.
	p.LastPlayedAt = time.Now().UTC().Add(-10 * time.Hour)
	h, petRepo, cooldowns, publisher := newPlayFixture(p)

	result, err := h.Handle(context.Background(), PlayMinigameCommand{UserID: "u1", GameID: "memory_cards"})
	require.NoError(t, err)

	// Снижение 80 покрывает скуку 20 целиком.
	assert.Equal(t, "memory_cards", result.Game.ID)
	assert.Zero(t, result.Boredom)
	assert.Equal(t, pet.Points(8), result.PointsEarned)
	assert.Equal(t, pet.Points(pet.InitialPoints+8), result.PointsBalance)
	assert.WithinDuration(t, time.Now().UTC().Add(cooldown.Minigame), result.NextPlayableAt, time.Minute)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Points(pet.InitialPoints+8), saved.Points)

	lastPlayed, _ := cooldowns.LastPlayed(context.Background(), p.ID, "memory_cards")
	assert.False(t, lastPlayed.IsZero())
	assert.True(t, publisher.has(shared.EventPetPlayed))
}

func TestPlayMinigame_UnknownGame(t *testing.T) {
	h, _, _, _ := newPlayFixture(newTestPet(t, "u1"))

	_, err := h.Handle(context.Background(), PlayMinigameCommand{UserID: "u1", GameID: "chess"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPlayMinigame_DailyCooldownPerGame(t *testing.T) {
	p := newTestPet(t, "u1")
	h, _, cooldowns, _ := newPlayFixture(p)

	// В эту игру уже играли три часа назад.
	require.NoError(t, cooldowns.MarkPlayed(context.Background(), p.ID, "number_guess", time.Now().UTC().Add(-3*time.Hour)))

	_, err := h.Handle(context.Background(), PlayMinigameCommand{UserID: "u1", GameID: "number_guess"})
	assert.ErrorIs(t, err, cooldown.ErrOnCooldown)

	// Другая игра при этом доступна.
	_, err = h.Handle(context.Background(), PlayMinigameCommand{UserID: "u1", GameID: "rock_paper_scissors"})
	assert.NoError(t, err)
}
