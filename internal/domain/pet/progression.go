package pet

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// ПРОГРЕССИЯ И ДИАГНОСТИКА ПИТАНИЯ
// ══════════════════════════════════════════════════════════════════════════════

// Stage - стадия развития питомца, определяется уровнем.
type Stage struct {
	MinLevel Level
	Name     string
	Emoji    string
}

// Stages - стадии в порядке возрастания уровня.
var Stages = []Stage{
	{MinLevel: 1, Name: "알", Emoji: "🥚"},
	{MinLevel: 3, Name: "아기", Emoji: "🐣"},
	{MinLevel: 5, Name: "어린이", Emoji: "🐥"},
	{MinLevel: 10, Name: "청소년", Emoji: "🐤"},
	{MinLevel: 20, Name: "성인", Emoji: "🦉"},
}

// StageFor возвращает последнюю стадию, чей MinLevel не превышает уровень.
func StageFor(level Level) Stage {
	stage := Stages[0]
	for _, s := range Stages {
		if level >= s.MinLevel {
			stage = s
		}
	}
	return stage
}

// NutritionGrade - диагноз баланса питания.
type NutritionGrade string

const (
	NutritionGood    NutritionGrade = "good"
	NutritionWarning NutritionGrade = "warning"
	NutritionDanger  NutritionGrade = "danger"
)

// NutritionScore возвращает балльную оценку баланса питания в [0, 100].
// Штрафует перекос: score = round(avg * min/avg). Нулевое среднее
// считается идеальным балансом (ratio = 1), а не делением на ноль.
func NutritionScore(n Nutrition) int {
	var sum, minVal int
	minVal = math.MaxInt
	for _, k := range NutrientKeys {
		v := n.Get(k)
		sum += v
		if v < minVal {
			minVal = v
		}
	}
	avg := float64(sum) / float64(len(NutrientKeys))
	balance := 1.0
	if avg != 0 {
		balance = float64(minVal) / avg
	}
	return int(math.Round(avg * balance))
}

// LowNutrients возвращает нутриенты ниже порога дефицита,
// в фиксированном порядке NutrientKeys.
func LowNutrients(n Nutrition) []NutrientKey {
	var low []NutrientKey
	for _, k := range NutrientKeys {
		if n.Get(k) < LowNutrientThreshold {
			low = append(low, k)
		}
	}
	return low
}

// NutritionStatusOf возвращает диагноз: good без дефицитов,
// warning при 1-2 дефицитах, danger при 3 и более.
func NutritionStatusOf(n Nutrition) NutritionGrade {
	switch lows := len(LowNutrients(n)); {
	case lows == 0:
		return NutritionGood
	case lows <= 2:
		return NutritionWarning
	default:
		return NutritionDanger
	}
}
