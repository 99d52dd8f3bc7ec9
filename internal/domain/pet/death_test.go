package pet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateDeath_StoredFlagWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.IsDead = true

	dead, cause := p.EvaluateDeath(time.Time{}, base)
	assert.True(t, dead)
	assert.Equal(t, CauseStoredFlag, cause)
}

func TestEvaluateDeath_Starvation(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	// нутриенты держим высокими, чтобы голод сработал первым
	for _, k := range NutrientKeys {
		p.Nutrition[k] = MaxNutrient
	}
	p.Intelligence = MaxIntelligence

	// 50 часов: голод 100-100=0, но скука уже 100 (не смертельна),
	// нутриенты 100-150 -> 0 тоже. Порядок проверок отдаёт голод.
	dead, cause := p.EvaluateDeath(time.Time{}, base.Add(50*time.Hour))
	assert.True(t, dead)
	assert.Equal(t, CauseStarvation, cause)
}

func TestEvaluateDeath_Boredom(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	// остальные чекпоинты свежие, играли 100 часов назад: скука 200
	p.LastPlayedAt = base.Add(-100 * time.Hour)
	dead, cause := p.EvaluateDeath(time.Time{}, base)
	assert.True(t, dead)
	assert.Equal(t, CauseBoredom, cause)
}

func TestEvaluateDeath_Malnutrition(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.Nutrition[NutrientVitamin] = 0

	dead, cause := p.EvaluateDeath(time.Time{}, base)
	assert.True(t, dead)
	assert.Equal(t, CauseMalnutrition, cause)
}

func TestEvaluateDeath_Stupidity(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)
	p.Intelligence = 0

	dead, cause := p.EvaluateDeath(time.Time{}, base)
	assert.True(t, dead)
	assert.Equal(t, CauseStupidity, cause)
}

func TestEvaluateDeath_HealthyPetAlive(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPet(t, base)

	dead, cause := p.EvaluateDeath(time.Time{}, base.Add(time.Hour))
	assert.False(t, dead)
	assert.Equal(t, CauseNone, cause)
}

func TestStatusEmoji_Priorities(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("dead", func(t *testing.T) {
		p := newTestPet(t, base)
		p.IsDead = true
		assert.Equal(t, "👻", p.StatusEmoji(time.Time{}, base))
	})

	t.Run("hunger tiers", func(t *testing.T) {
		p := newTestPet(t, base)
		p.Hunger = 10
		// интеллект не даём обнулиться за время теста
		p.Intelligence = MaxIntelligence
		assert.Equal(t, "😫", p.StatusEmoji(time.Time{}, base))
		p.Hunger = 25
		assert.Equal(t, "😢", p.StatusEmoji(time.Time{}, base))
		p.Hunger = 40
		assert.Equal(t, "😔", p.StatusEmoji(time.Time{}, base))
	})

	t.Run("boredom tiers beat nutrition", func(t *testing.T) {
		p := newTestPet(t, base)
		p.LastPlayedAt = base.Add(-80 * time.Hour) // скука 160... смертельно? 160<200 ок
		p.Nutrition[NutrientCarbs] = 5             // warning, но скука приоритетнее
		assert.Equal(t, "😑", p.StatusEmoji(time.Time{}, base))

		p.LastPlayedAt = base.Add(-55 * time.Hour) // скука 110
		assert.Equal(t, "😒", p.StatusEmoji(time.Time{}, base))

		p.LastPlayedAt = base.Add(-30 * time.Hour) // скука 60
		assert.Equal(t, "😐", p.StatusEmoji(time.Time{}, base))
	})

	t.Run("nutrition grades", func(t *testing.T) {
		p := newTestPet(t, base)
		p.Nutrition[NutrientCarbs] = 10
		assert.Equal(t, "😟", p.StatusEmoji(time.Time{}, base))

		p.Nutrition[NutrientProtein] = 10
		p.Nutrition[NutrientFat] = 10
		assert.Equal(t, "🤢", p.StatusEmoji(time.Time{}, base))
	})

	t.Run("content tiers", func(t *testing.T) {
		p := newTestPet(t, base)
		assert.Equal(t, "😄", p.StatusEmoji(time.Time{}, base)) // hunger 100

		p.Hunger = 75
		assert.Equal(t, "😊", p.StatusEmoji(time.Time{}, base))

		p.Hunger = 60
		assert.Equal(t, "🙂", p.StatusEmoji(time.Time{}, base))
	})
}
