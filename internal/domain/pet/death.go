package pet

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// ОЦЕНКА СМЕРТИ И СТАТУС
// Смерть вычисляется, а не тикает: любой обсчёт состояния прогоняет
// питомца через EvaluateDeath. Хранимый флаг первичен - вычисленная
// смерть фиксируется отдельно через ConfirmDeath.
// ══════════════════════════════════════════════════════════════════════════════

// CauseOfDeath - причина смерти при вычислении.
type CauseOfDeath string

const (
	CauseNone         CauseOfDeath = ""
	CauseStoredFlag   CauseOfDeath = "stored_flag"
	CauseStarvation   CauseOfDeath = "starvation"
	CauseBoredom      CauseOfDeath = "boredom"
	CauseMalnutrition CauseOfDeath = "malnutrition"
	CauseStupidity    CauseOfDeath = "stupidity"
)

// EvaluateDeath вычисляет, мёртв ли питомец на момент now, и первую
// сработавшую причину. Порядок проверок фиксирован: хранимый флаг,
// голод, скука, нутриенты, интеллект.
func (p *Pet) EvaluateDeath(sessionStart, now time.Time) (bool, CauseOfDeath) {
	if p.IsDead {
		return true, CauseStoredFlag
	}
	if p.CurrentHunger(sessionStart, now) <= 0 {
		return true, CauseStarvation
	}
	if p.CurrentBoredom(sessionStart, now) >= MaxBoredom {
		return true, CauseBoredom
	}
	nutrition := p.CurrentNutrition(sessionStart, now)
	for _, k := range NutrientKeys {
		if nutrition.Get(k) <= 0 {
			return true, CauseMalnutrition
		}
	}
	if p.CurrentIntelligence(sessionStart, now) <= 0 {
		return true, CauseStupidity
	}
	return false, CauseNone
}

// IsDeadAt возвращает только факт смерти, без причины.
func (p *Pet) IsDeadAt(sessionStart, now time.Time) bool {
	dead, _ := p.EvaluateDeath(sessionStart, now)
	return dead
}

// StatusEmoji возвращает эмодзи текущего состояния питомца.
// Приоритет: смерть, голод, скука, проблемы питания, довольство.
func (p *Pet) StatusEmoji(sessionStart, now time.Time) string {
	if p.IsDeadAt(sessionStart, now) {
		return "👻"
	}

	hunger := p.CurrentHunger(sessionStart, now)
	if hunger <= 10 {
		return "😫"
	}
	if hunger <= 25 {
		return "😢"
	}
	if hunger <= 40 {
		return "😔"
	}

	boredom := p.CurrentBoredom(sessionStart, now)
	if boredom >= 150 {
		return "😑"
	}
	if boredom >= 100 {
		return "😒"
	}
	if boredom >= 50 {
		return "😐"
	}

	switch NutritionStatusOf(p.CurrentNutrition(sessionStart, now)) {
	case NutritionDanger:
		return "🤢"
	case NutritionWarning:
		return "😟"
	}

	if hunger >= 90 {
		return "😄"
	}
	if hunger >= 70 {
		return "😊"
	}
	return "🙂"
}
