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

func newCreatePetFixture(pets ...*pet.Pet) (*CreatePetHandler, *fakePetRepo, *fakeCooldowns, *fakePublisher) {
	petRepo := newFakePetRepo(pets...)
	cooldowns := newFakeCooldowns()
	publisher := &fakePublisher{}
	return NewCreatePetHandler(petRepo, cooldowns, publisher), petRepo, cooldowns, publisher
}

func TestCreatePet_HatchesFresh(t *testing.T) {
	h, petRepo, _, publisher := newCreatePetFixture()

	result, err := h.Handle(context.Background(), CreatePetCommand{UserID: "u1", Name: "토리"})
	require.NoError(t, err)

	assert.False(t, result.Replaced)
	assert.Equal(t, pet.Level(1), result.Pet.Level)
	assert.Equal(t, pet.Points(pet.InitialPoints), result.Pet.Points)
	assert.Equal(t, pet.Intelligence(pet.InitialIntelligence), result.Pet.Intelligence)
	assert.True(t, result.Pet.MBTI.IsValid())

	saved, err := petRepo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "토리", saved.Name)
	assert.True(t, publisher.has(shared.EventPetCreated))
}

func TestCreatePet_LivingPetBlocks(t *testing.T) {
	existing := newTestPet(t, "u1")
	h, _, _, _ := newCreatePetFixture(existing)

	_, err := h.Handle(context.Background(), CreatePetCommand{UserID: "u1", Name: "토리"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreatePet_PenaltyWindowGatesReplacement(t *testing.T) {
	dead := newTestPet(t, "u1")
	dead.IsDead = true
	dead.DiedAt = time.Now().UTC().Add(-10 * time.Hour)
	h, _, _, _ := newCreatePetFixture(dead)

	// До конца 48-часового окна ещё 38 часов.
	_, err := h.Handle(context.Background(), CreatePetCommand{UserID: "u1", Name: "토리"})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreatePet_ReplacesAfterPenalty(t *testing.T) {
	dead := newTestPet(t, "u1")
	dead.IsDead = true
	dead.DiedAt = time.Now().UTC().Add(-pet.DeathPenalty - time.Hour)
	h, petRepo, cooldowns, _ := newCreatePetFixture(dead)

	result, err := h.Handle(context.Background(), CreatePetCommand{UserID: "u1", Name: "두리"})
	require.NoError(t, err)

	assert.True(t, result.Replaced)
	assert.NotEqual(t, dead.ID, result.Pet.ID)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.False(t, saved.IsDead)
	assert.Equal(t, "두리", saved.Name)

	// Кулдауны мини-игр предшественника сброшены.
	assert.Contains(t, cooldowns.cleared, dead.ID)
}

func TestCreatePet_InvalidNameRejected(t *testing.T) {
	h, _, _, _ := newCreatePetFixture()

	// Имя длиннее 10 рун.
	_, err := h.Handle(context.Background(), CreatePetCommand{UserID: "u1", Name: "아주아주아주긴이름이다"})
	assert.ErrorIs(t, err, pet.ErrInvalidName)
}
