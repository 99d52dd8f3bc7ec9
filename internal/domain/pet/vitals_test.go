package pet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestPet(t *testing.T, at time.Time) *Pet {
	t.Helper()
	p, err := NewPet(NewPetParams{
		ID:              "pet-1",
		UserID:          "user-1",
		Name:            "토토",
		CharacterSprite: SpriteRabbit,
		RoomType:        RoomBedroom,
		MBTI:            "ENFP",
	})
	assert.NoError(t, err)
	p.CreatedAt = at
	p.LastFedAt = at
	p.LastStudiedAt = at
	p.LastPlayedAt = at
	return p
}

func TestCurrentHunger_DecaysPerHour(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.Equal(t, 100, p.CurrentHunger(time.Time{}, base))
	assert.Equal(t, 100, p.CurrentHunger(time.Time{}, base.Add(29*time.Minute)))
	assert.Equal(t, 98, p.CurrentHunger(time.Time{}, base.Add(1*time.Hour)))
	assert.Equal(t, 90, p.CurrentHunger(time.Time{}, base.Add(5*time.Hour)))
	// ступенчато: 2.5 часа -> floor(5) = 5
	assert.Equal(t, 95, p.CurrentHunger(time.Time{}, base.Add(2*time.Hour+30*time.Minute)))
}

func TestCurrentHunger_ClampsAtZero(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.Equal(t, 0, p.CurrentHunger(time.Time{}, base.Add(100*time.Hour)))
}

func TestCurrentHunger_NegativeElapsedIsNoop(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	// чекпоинт в будущем (рассинхрон часов) не лечит и не вредит
	assert.Equal(t, 100, p.CurrentHunger(time.Time{}, base.Add(-3*time.Hour)))
}

func TestCurrentHunger_SessionStartShieldsOfflineTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	// кормили 10 дней назад, но сессия открыта час назад:
	// распад идёт только внутри сессии
	sessionStart := base.Add(240 * time.Hour)
	now := sessionStart.Add(1 * time.Hour)
	assert.Equal(t, 98, p.CurrentHunger(sessionStart, now))
}

func TestCurrentNutrition_SharedCheckpoint(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	got := p.CurrentNutrition(time.Time{}, base.Add(3*time.Hour))
	for _, k := range NutrientKeys {
		assert.Equal(t, 41, got.Get(k), string(k))
	}
}

func TestCurrentNutrition_MissingKeyDefaultsTo50(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.Nutrition = Nutrition{NutrientCarbs: 80}

	got := p.CurrentNutrition(time.Time{}, base.Add(1*time.Hour))
	assert.Equal(t, 77, got.Get(NutrientCarbs))
	assert.Equal(t, 47, got.Get(NutrientProtein))
}

func TestCurrentIntelligence_FallsBackToCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.LastStudiedAt = time.Time{}
	p.Intelligence = 20

	assert.Equal(t, 15, p.CurrentIntelligence(time.Time{}, base.Add(5*time.Hour)))
}

func TestCurrentBoredom_AccumulatorOnly(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	assert.Equal(t, 0, p.CurrentBoredom(time.Time{}, base))
	assert.Equal(t, 2, p.CurrentBoredom(time.Time{}, base.Add(1*time.Hour)))
	assert.Equal(t, 20, p.CurrentBoredom(time.Time{}, base.Add(10*time.Hour)))
	assert.Equal(t, MaxBoredom, p.CurrentBoredom(time.Time{}, base.Add(1000*time.Hour)))
}

func TestCurrentVitals_ConsistentSnapshot(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	now := base.Add(4 * time.Hour)
	v := p.CurrentVitals(time.Time{}, now)
	assert.Equal(t, p.CurrentHunger(time.Time{}, now), v.Hunger)
	assert.Equal(t, p.CurrentBoredom(time.Time{}, now), v.Boredom)
	assert.Equal(t, p.CurrentIntelligence(time.Time{}, now), v.Intelligence)
	assert.Equal(t, p.CurrentNutrition(time.Time{}, now), v.Nutrition)
}

func TestCurrentHunger_MonotoneInTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	prev := p.CurrentHunger(time.Time{}, base)
	for h := 1; h <= 60; h++ {
		cur := p.CurrentHunger(time.Time{}, base.Add(time.Duration(h)*time.Hour))
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}
