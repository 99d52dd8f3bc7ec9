package pet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPet_Defaults(t *testing.T) {
	p, err := NewPet(NewPetParams{
		ID:     "pet-1",
		UserID: "user-1",
		Name:   "  토토  ",
	})
	assert.NoError(t, err)

	assert.Equal(t, "토토", p.Name)
	assert.Equal(t, Level(1), p.Level)
	assert.Equal(t, Experience(0), p.Experience)
	assert.Equal(t, Intelligence(InitialIntelligence), p.Intelligence)
	assert.Equal(t, MaxHunger, p.Hunger)
	assert.Equal(t, Points(InitialPoints), p.Points)
	assert.False(t, p.IsDead)
	for _, k := range NutrientKeys {
		assert.Equal(t, DefaultNutrient, p.Nutrition.Get(k))
	}
	assert.Equal(t, FoodInventory{"rice": 3, "apple": 2, "milk": 2}, p.FoodInventory)
	// невалидные внешние атрибуты заменяются дефолтами
	assert.Equal(t, SpriteRabbit, p.CharacterSprite)
	assert.Equal(t, RoomBedroom, p.RoomType)
	assert.True(t, p.MBTI.IsValid())
}

func TestNewPet_NameValidation(t *testing.T) {
	_, err := NewPet(NewPetParams{ID: "pet-1", UserID: "user-1", Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewPet(NewPetParams{ID: "pet-1", UserID: "user-1", Name: "열글자넘는이름입니다요"})
	assert.ErrorIs(t, err, ErrInvalidName)

	// 10 рун ровно - валидно (считаем руны, не байты)
	_, err = NewPet(NewPetParams{ID: "pet-1", UserID: "user-1", Name: "열글자되는이름이다요"})
	assert.NoError(t, err)
}

func TestGainExperience_LevelRecomputed(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	leveled := p.GainExperience(150)
	assert.False(t, leveled)
	assert.Equal(t, Level(1), p.Level)

	leveled = p.GainExperience(50)
	assert.True(t, leveled)
	assert.Equal(t, Level(2), p.Level)
	assert.Equal(t, Experience(200), p.Experience)
	assert.Equal(t, 0, ExpProgress(p.Experience))
}

func TestRecordStudy_AppliesGainsAndCheckpoint(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	at := base.Add(2 * time.Hour)

	p.RecordStudy(8, 4, 40, at)

	assert.Equal(t, Intelligence(18), p.Intelligence)
	assert.Equal(t, Points(InitialPoints+4), p.Points)
	assert.Equal(t, Experience(40), p.Experience)
	assert.Equal(t, at, p.LastStudiedAt)
}

func TestApplyExamResult_Rewards(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := base.Add(time.Hour)

	p := newTestPet(t, base)
	p.ApplyExamResult(true, at)
	assert.Equal(t, Experience(50), p.Experience)
	assert.Equal(t, Intelligence(20), p.Intelligence)
	assert.Equal(t, at, p.LastStudiedAt)

	p2 := newTestPet(t, base)
	p2.ApplyExamResult(false, at)
	assert.Equal(t, Experience(10), p2.Experience)
	assert.Equal(t, Intelligence(12), p2.Intelligence)
}

func TestApplyExamResult_IntelligenceCapped(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.Intelligence = MaxIntelligence - 3

	p.ApplyExamResult(true, base)
	assert.Equal(t, Intelligence(MaxIntelligence), p.Intelligence)
}

func TestFeed_RestoresAndConsumes(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	rice, ok := FoodByID("rice")
	assert.True(t, ok)

	at := base.Add(10 * time.Hour)
	liveHunger := p.CurrentHunger(time.Time{}, at) // 80
	liveNutrition := p.CurrentNutrition(time.Time{}, at)

	err := p.Feed(rice, liveHunger, liveNutrition, at)
	assert.NoError(t, err)

	assert.Equal(t, MaxHunger, p.Hunger) // 80+25 -> cap 100
	assert.Equal(t, at, p.LastFedAt)
	assert.Equal(t, 2, p.FoodInventory["rice"])
	// нутриенты: 50-30=20 live, плюс профиль риса
	assert.Equal(t, 50, p.Nutrition.Get(NutrientCarbs))
	assert.Equal(t, 25, p.Nutrition.Get(NutrientProtein))
}

func TestFeed_RequiresInventory(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	meat, _ := FoodByID("meat")

	err := p.Feed(meat, 50, p.Nutrition, base)
	assert.ErrorIs(t, err, ErrNotInInventory)
}

func TestFeed_DeadPetRejected(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.ConfirmDeath(base)
	rice, _ := FoodByID("rice")

	err := p.Feed(rice, 50, p.Nutrition, base)
	assert.ErrorIs(t, err, ErrDead)
	assert.Equal(t, 3, p.FoodInventory["rice"])
}

func TestRecordPlay_EncodesBoredomByRewind(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	// 50 часов без игры -> скука 100
	now := base.Add(50 * time.Hour)
	live := p.CurrentBoredom(time.Time{}, now)
	assert.Equal(t, 100, live)

	p.RecordPlay(live, 60, 10, now)

	// новая скука 40, чекпоинт откатан на 40/2=20 часов
	assert.Equal(t, now.Add(-20*time.Hour), p.LastPlayedAt)
	assert.Equal(t, 40, p.CurrentBoredom(time.Time{}, now))
	assert.Equal(t, Points(InitialPoints+10), p.Points)
}

func TestRecordPlay_ReductionFloorsAtZero(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	now := base.Add(5 * time.Hour)
	p.RecordPlay(p.CurrentBoredom(time.Time{}, now), 500, 0, now)

	assert.Equal(t, now, p.LastPlayedAt)
	assert.Equal(t, 0, p.CurrentBoredom(time.Time{}, now))
}

func TestConfirmDeath_Sticky(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.True(t, p.ConfirmDeath(base))
	diedAt := p.DiedAt
	assert.False(t, p.ConfirmDeath(base.Add(time.Hour)))
	assert.Equal(t, diedAt, p.DiedAt)
}

func TestRevive_ResetsHungerOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.Intelligence = 42
	p.ConfirmDeath(base)

	at := base.Add(3 * time.Hour)
	assert.NoError(t, p.Revive(at))

	assert.False(t, p.IsDead)
	assert.True(t, p.DiedAt.IsZero())
	assert.Equal(t, ReviveHunger, p.Hunger)
	assert.Equal(t, at, p.LastFedAt)
	assert.Equal(t, Intelligence(42), p.Intelligence)
}

func TestRevive_AlivePetRejected(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.ErrorIs(t, p.Revive(base), ErrNotDead)
}

func TestPenaltyWindow(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.ConfirmDeath(base)

	assert.False(t, p.PenaltyElapsed(base.Add(47*time.Hour)))
	assert.Equal(t, time.Hour, p.PenaltyRemaining(base.Add(47*time.Hour)))
	assert.True(t, p.PenaltyElapsed(base.Add(48*time.Hour)))
	assert.Equal(t, time.Duration(0), p.PenaltyRemaining(base.Add(50*time.Hour)))
}

func TestSpendPoints(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.True(t, p.SpendPoints(30))
	assert.Equal(t, Points(0), p.Points)
	assert.False(t, p.SpendPoints(1))
	assert.False(t, p.SpendPoints(-5))
}

func TestFoodInventory_TakeRemovesEmptySlots(t *testing.T) {
	inv := FoodInventory{"apple": 1}
	assert.True(t, inv.Take("apple"))
	_, exists := inv["apple"]
	assert.False(t, exists)
	assert.False(t, inv.Take("apple"))
}

func TestClone_Independent(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	c := p.Clone()
	c.Nutrition[NutrientCarbs] = 0
	c.FoodInventory["rice"] = 99

	assert.Equal(t, DefaultNutrient, p.Nutrition.Get(NutrientCarbs))
	assert.Equal(t, 3, p.FoodInventory["rice"])
}
