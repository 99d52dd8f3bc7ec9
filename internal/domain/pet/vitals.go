package pet

import (
	"math"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VITALS - ЖИВЫЕ ЗНАЧЕНИЯ РЕСУРСОВ
// Ресурсы не тикают в фоне. Хранятся чекпоинты, а живое значение выводится
// чистой функцией от прошедшего времени. База отсчёта - старт сессии, если
// он есть, иначе чекпоинт: пока приложение закрыто, питомец ничего не теряет.
// ══════════════════════════════════════════════════════════════════════════════

// decaySteps возвращает количество единиц распада за время от baseline до now.
// Ступенчато: floor(часы * скорость). Отрицательное время (чекпоинт в будущем,
// рассинхрон часов) даёт ноль - ресурс никогда не "лечится" временем.
func decaySteps(baseline, now time.Time, ratePerHour float64) int {
	elapsed := now.Sub(baseline)
	if elapsed <= 0 {
		return 0
	}
	return int(math.Floor(elapsed.Hours() * ratePerHour))
}

// baselineFor выбирает базу распада: старт сессии, если он задан,
// иначе сам чекпоинт (полный распад по настенным часам - legacy-путь).
func baselineFor(checkpoint, sessionStart time.Time) time.Time {
	if !sessionStart.IsZero() {
		return sessionStart
	}
	return checkpoint
}

// clampInt ограничивает значение диапазоном [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CurrentHunger возвращает живую сытость на момент now.
// Чистая функция: повторный вызов с тем же now даёт тот же результат,
// рост now может только уменьшать результат.
func (p *Pet) CurrentHunger(sessionStart, now time.Time) int {
	baseline := baselineFor(p.LastFedAt, sessionStart)
	decayed := decaySteps(baseline, now, HungerDecayPerHour)
	return clampInt(p.Hunger-decayed, 0, MaxHunger)
}

// CurrentNutrition возвращает живые значения пяти нутриентов на момент now.
// Все нутриенты делят один чекпоинт (LastFedAt) и одну скорость распада.
func (p *Pet) CurrentNutrition(sessionStart, now time.Time) Nutrition {
	baseline := baselineFor(p.LastFedAt, sessionStart)
	decayed := decaySteps(baseline, now, NutrientDecayPerHour)

	out := make(Nutrition, len(NutrientKeys))
	for _, k := range NutrientKeys {
		out[k] = clampInt(p.Nutrition.Get(k)-decayed, 0, MaxNutrient)
	}
	return out
}

// CurrentIntelligence возвращает живой интеллект на момент now.
// Без учёбы интеллект падает. Чекпоинт - LastStudiedAt, при его
// отсутствии - время создания питомца.
func (p *Pet) CurrentIntelligence(sessionStart, now time.Time) int {
	checkpoint := p.LastStudiedAt
	if checkpoint.IsZero() {
		checkpoint = p.CreatedAt
	}
	baseline := baselineFor(checkpoint, sessionStart)
	decayed := decaySteps(baseline, now, IntelligenceDecayPerHour)
	return clampInt(int(p.Intelligence)-decayed, 0, MaxIntelligence)
}

// CurrentBoredom возвращает живую скуку на момент now.
// Скука - аккумулятор: хранимой величины нет, значение целиком
// реконструируется из времени с последней игры (или создания питомца).
func (p *Pet) CurrentBoredom(sessionStart, now time.Time) int {
	checkpoint := p.LastPlayedAt
	if checkpoint.IsZero() {
		checkpoint = p.CreatedAt
	}
	baseline := baselineFor(checkpoint, sessionStart)
	grown := decaySteps(baseline, now, BoredomGrowthPerHour)
	return clampInt(grown, 0, MaxBoredom)
}

// Vitals - снимок всех живых ресурсов на один момент времени.
type Vitals struct {
	Hunger       int
	Boredom      int
	Intelligence int
	Nutrition    Nutrition
}

// CurrentVitals возвращает согласованный снимок всех ресурсов на момент now.
func (p *Pet) CurrentVitals(sessionStart, now time.Time) Vitals {
	return Vitals{
		Hunger:       p.CurrentHunger(sessionStart, now),
		Boredom:      p.CurrentBoredom(sessionStart, now),
		Intelligence: p.CurrentIntelligence(sessionStart, now),
		Nutrition:    p.CurrentNutrition(sessionStart, now),
	}
}
