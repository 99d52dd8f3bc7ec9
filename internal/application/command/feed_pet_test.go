package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

func newFeedFixture(p *pet.Pet) (*FeedPetHandler, *fakePetRepo, *fakePublisher) {
	petRepo := newFakePetRepo(p)
	publisher := &fakePublisher{}
	h := NewFeedPetHandler(petRepo, newFakeSessions(), &fakePetCache{}, publisher)
	return h, petRepo, publisher
}

func TestFeedPet_RestoresFromLiveHunger(t *testing.T) {
	p := newTestPet(t, "u1")
	// Два часа без еды: живая сытость 60-4=56, рис вернёт +25.
	p.Hunger = 60
	p.LastFedAt = time.Now().UTC().Add(-2 * time.Hour)
	h, petRepo, publisher := newFeedFixture(p)

	result, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "rice"})
	require.NoError(t, err)

	assert.Equal(t, 81, result.Hunger)
	assert.Equal(t, 2, result.RemainingPortions)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, 81, saved.Hunger)
	assert.WithinDuration(t, time.Now().UTC(), saved.LastFedAt, time.Minute)
	assert.True(t, publisher.has(shared.EventPetFed))
}

func TestFeedPet_GrantsExperience(t *testing.T) {
	p := newTestPet(t, "u1")
	h, petRepo, _ := newFeedFixture(p)

	result, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "rice"})
	require.NoError(t, err)

	assert.Equal(t, pet.ExpPerFeed, result.ExpGained)
	assert.False(t, result.LeveledUp)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Experience(pet.ExpPerFeed), saved.Experience)
}

func TestFeedPet_LevelUpOnFeed(t *testing.T) {
	p := newTestPet(t, "u1")
	// До второго уровня не хватает ровно одного кормления.
	p.Experience = pet.Experience(pet.ExpToLevelUp - pet.ExpPerFeed)
	p.Level = pet.CalculateLevel(p.Experience)
	h, petRepo, publisher := newFeedFixture(p)

	result, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "rice"})
	require.NoError(t, err)

	assert.True(t, result.LeveledUp)
	assert.True(t, publisher.has(shared.EventLevelUp))

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, pet.Level(2), saved.Level)
}

func TestFeedPet_ClampsAtMaxHunger(t *testing.T) {
	p := newTestPet(t, "u1")
	h, _, _ := newFeedFixture(p)

	// Сытый питомец: 100+25 упирается в потолок.
	result, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "rice"})
	require.NoError(t, err)
	assert.Equal(t, pet.MaxHunger, result.Hunger)
}

func TestFeedPet_FoodNotInInventory(t *testing.T) {
	p := newTestPet(t, "u1")
	h, _, _ := newFeedFixture(p)

	// Мясо есть в каталоге, но не в стартовом инвентаре.
	_, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "meat"})
	assert.ErrorIs(t, err, pet.ErrNotInInventory)
}

func TestFeedPet_UnknownFood(t *testing.T) {
	h, _, _ := newFeedFixture(newTestPet(t, "u1"))

	_, err := h.Handle(context.Background(), FeedPetCommand{UserID: "u1", FoodID: "pizza"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
