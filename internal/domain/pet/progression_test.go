package pet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevel(t *testing.T) {
	assert.Equal(t, Level(1), CalculateLevel(0))
	assert.Equal(t, Level(1), CalculateLevel(199))
	assert.Equal(t, Level(2), CalculateLevel(200))
	assert.Equal(t, Level(3), CalculateLevel(450))
	assert.Equal(t, Level(1), CalculateLevel(-10))
}

func TestExpProgress(t *testing.T) {
	assert.Equal(t, 0, ExpProgress(0))
	assert.Equal(t, 199, ExpProgress(199))
	assert.Equal(t, 0, ExpProgress(200))
	assert.Equal(t, 50, ExpProgress(450))
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, "알", StageFor(1).Name)
	assert.Equal(t, "알", StageFor(2).Name)
	assert.Equal(t, "아기", StageFor(3).Name)
	assert.Equal(t, "어린이", StageFor(5).Name)
	assert.Equal(t, "청소년", StageFor(10).Name)
	assert.Equal(t, "청소년", StageFor(19).Name)
	assert.Equal(t, "성인", StageFor(20).Name)
	assert.Equal(t, "성인", StageFor(99).Name)
}

func TestNutritionScore_Balanced(t *testing.T) {
	n := Nutrition{}
	for _, k := range NutrientKeys {
		n[k] = 80
	}
	// идеальный баланс: score = avg
	assert.Equal(t, 80, NutritionScore(n))
}

func TestNutritionScore_PenalizesImbalance(t *testing.T) {
	n := Nutrition{
		NutrientCarbs: 100, NutrientProtein: 100, NutrientFat: 100,
		NutrientVitamin: 100, NutrientMineral: 0,
	}
	// avg 80, min 0 -> score 0
	assert.Equal(t, 0, NutritionScore(n))
}

func TestNutritionScore_AllZeroIsZeroNotNaN(t *testing.T) {
	n := Nutrition{}
	for _, k := range NutrientKeys {
		n[k] = 0
	}
	assert.Equal(t, 0, NutritionScore(n))
}

func TestLowNutrients_StableOrder(t *testing.T) {
	n := Nutrition{
		NutrientCarbs: 50, NutrientProtein: 10, NutrientFat: 50,
		NutrientVitamin: 5, NutrientMineral: 50,
	}
	assert.Equal(t, []NutrientKey{NutrientProtein, NutrientVitamin}, LowNutrients(n))
}

func TestNutritionStatusOf(t *testing.T) {
	healthy := DefaultNutrition()
	assert.Equal(t, NutritionGood, NutritionStatusOf(healthy))

	warn := DefaultNutrition()
	warn[NutrientCarbs] = 10
	warn[NutrientFat] = 15
	assert.Equal(t, NutritionWarning, NutritionStatusOf(warn))

	danger := DefaultNutrition()
	danger[NutrientCarbs] = 10
	danger[NutrientFat] = 10
	danger[NutrientMineral] = 10
	assert.Equal(t, NutritionDanger, NutritionStatusOf(danger))
}

func TestNutritionStatus_BoundaryAtThreshold(t *testing.T) {
	n := DefaultNutrition()
	n[NutrientCarbs] = LowNutrientThreshold
	// порог строгий: ровно 20 дефицитом не считается
	assert.Equal(t, NutritionGood, NutritionStatusOf(n))
}
