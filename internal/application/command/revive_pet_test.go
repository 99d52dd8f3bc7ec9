package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
	"github.com/studygotchi/studygotchi-hub/internal/domain/user"
)

func newReviveFixture(p *pet.Pet, owner *user.User) (*RevivePetHandler, *fakePetRepo, *fakeUserRepo, *fakePublisher) {
	petRepo := newFakePetRepo(p)
	userRepo := newFakeUserRepo(owner)
	publisher := &fakePublisher{}
	h := NewRevivePetHandler(petRepo, userRepo, newFakeSessions(), &fakePetCache{}, publisher)
	return h, petRepo, userRepo, publisher
}

func newOwnerWithPotions(n int) *user.User {
	return &user.User{
		ID:          "u1",
		Email:       "owner@studygotchi.dev",
		DisplayName: "민지",
		Items:       user.Items{RevivePotion: n},
	}
}

func TestRevivePet_SpendsPotionAndClearsDeath(t *testing.T) {
	p := newTestPet(t, "u1")
	p.IsDead = true
	p.DiedAt = time.Now().UTC().Add(-3 * time.Hour)
	p.Hunger = 0
	h, petRepo, userRepo, publisher := newReviveFixture(p, newOwnerWithPotions(2))

	result, err := h.Handle(context.Background(), RevivePetCommand{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.PotionsLeft)
	assert.False(t, result.Pet.IsDead)
	assert.True(t, result.Pet.DiedAt.IsZero())
	assert.Equal(t, pet.ReviveHunger, result.Pet.Hunger)

	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.False(t, saved.IsDead)
	assert.Equal(t, pet.ReviveHunger, saved.Hunger)

	owner, _ := userRepo.GetByID(context.Background(), "u1")
	assert.Equal(t, 1, owner.Items.RevivePotion)
	assert.True(t, publisher.has(shared.EventPetRevived))
}

func TestRevivePet_DerivedDeathCountsAsDead(t *testing.T) {
	// Флаг ещё не записан, но сытость уже на нуле.
	p := newTestPet(t, "u1")
	p.Hunger = 0
	h, _, _, _ := newReviveFixture(p, newOwnerWithPotions(1))

	result, err := h.Handle(context.Background(), RevivePetCommand{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, result.Pet.IsDead)
	assert.Equal(t, pet.ReviveHunger, result.Pet.Hunger)
}

func TestRevivePet_LivingPetRejected(t *testing.T) {
	h, _, _, _ := newReviveFixture(newTestPet(t, "u1"), newOwnerWithPotions(1))

	_, err := h.Handle(context.Background(), RevivePetCommand{UserID: "u1"})
	assert.ErrorIs(t, err, pet.ErrNotDead)
}

func TestRevivePet_NoPotion(t *testing.T) {
	p := newTestPet(t, "u1")
	p.IsDead = true
	p.DiedAt = time.Now().UTC().Add(-time.Hour)
	h, petRepo, _, _ := newReviveFixture(p, newOwnerWithPotions(0))

	_, err := h.Handle(context.Background(), RevivePetCommand{UserID: "u1"})
	assert.ErrorIs(t, err, user.ErrNoRevivePotion)

	// Питомец остаётся мёртвым.
	saved, _ := petRepo.GetByUserID(context.Background(), "u1")
	assert.True(t, saved.IsDead)
}
