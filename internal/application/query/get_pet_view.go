// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/cooldown"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PET VIEW QUERY
// Главный экран: живые витальные показатели, выведенные из чекпоинтов
// на момент запроса. Запрос ничего не пишет - даже вычисленная смерть
// здесь только показывается, фиксируют её команды и фоновый свип.
// ══════════════════════════════════════════════════════════════════════════════

// GetPetViewQuery содержит параметры запроса.
type GetPetViewQuery struct {
	// UserID - владелец питомца.
	UserID string
}

// Validate проверяет корректность параметров запроса.
func (q *GetPetViewQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user_id is required")
	}
	return nil
}

// VitalsDTO - живые витальные показатели.
type VitalsDTO struct {
	// Hunger - сытость [0, 100].
	Hunger int `json:"hunger"`

	// Nutrition - пять нутриентов [0, 100] каждый.
	Nutrition map[string]int `json:"nutrition"`

	// NutritionScore - балльная оценка баланса питания [0, 100].
	NutritionScore int `json:"nutrition_score"`

	// Boredom - скука [0, 200].
	Boredom int `json:"boredom"`

	// Intelligence - интеллект [0, 200].
	Intelligence int `json:"intelligence"`
}

// CooldownDTO - состояние одного кулдауна.
type CooldownDTO struct {
	// Available - можно ли выполнить действие сейчас.
	Available bool `json:"available"`

	// RemainingSeconds - секунд до разблокировки (0 = доступно).
	RemainingSeconds int `json:"remaining_seconds"`
}

// PetViewDTO - полное представление питомца для главного экрана.
type PetViewDTO struct {
	// ID - идентификатор питомца.
	ID string `json:"id"`

	// Name - имя питомца.
	Name string `json:"name"`

	// Sprite - спрайт персонажа.
	Sprite string `json:"sprite"`

	// Room - комната.
	Room string `json:"room"`

	// MBTI - характер.
	MBTI string `json:"mbti"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// Experience - накопленный опыт.
	Experience int `json:"experience"`

	// ExpProgress - прогресс к следующему уровню в процентах.
	ExpProgress int `json:"exp_progress"`

	// Stage - стадия развития.
	Stage string `json:"stage"`

	// StageEmoji - эмодзи стадии.
	StageEmoji string `json:"stage_emoji"`

	// StatusEmoji - сводный статус (мёртв/голоден/скучает/...).
	StatusEmoji string `json:"status_emoji"`

	// Vitals - живые показатели.
	Vitals VitalsDTO `json:"vitals"`

	// IsDead - мёртв ли питомец (хранимый флаг ИЛИ вычисленный).
	IsDead bool `json:"is_dead"`

	// CauseOfDeath - причина смерти, если мёртв.
	CauseOfDeath string `json:"cause_of_death,omitempty"`

	// PenaltyRemainingSeconds - остаток окна пенальти, если мёртв.
	PenaltyRemainingSeconds int `json:"penalty_remaining_seconds,omitempty"`

	// Points - баланс поинтов.
	Points int `json:"points"`

	// FoodInventory - инвентарь еды.
	FoodInventory map[string]int `json:"food_inventory"`

	// Cooldowns - состояние кулдаунов учёбы и чата.
	Cooldowns map[string]CooldownDTO `json:"cooldowns"`
}

// GetPetViewResult содержит результат запроса.
type GetPetViewResult struct {
	// Pet - представление питомца.
	Pet PetViewDTO `json:"pet"`

	// SessionActive - идёт ли активная сессия.
	SessionActive bool `json:"session_active"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetPetViewHandler обрабатывает запрос представления питомца.
type GetPetViewHandler struct {
	petRepo  pet.Repository
	sessions pet.SessionTracker
	petCache pet.Cache
	cacheTTL time.Duration
}

// NewGetPetViewHandler создаёт новый обработчик.
func NewGetPetViewHandler(
	petRepo pet.Repository,
	sessions pet.SessionTracker,
	petCache pet.Cache,
) *GetPetViewHandler {
	return &GetPetViewHandler{
		petRepo:  petRepo,
		sessions: sessions,
		petCache: petCache,
		cacheTTL: 30 * time.Second,
	}
}

// Handle выполняет запрос.
func (h *GetPetViewHandler) Handle(ctx context.Context, q GetPetViewQuery) (*GetPetViewResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_pet_view: %w", err)
	}

	p, err := h.loadPet(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("get_pet_view: %w", err)
	}

	sessionStart, err := h.sessions.SessionStart(ctx, q.UserID)
	if err != nil {
		sessionStart = time.Time{}
	}

	now := time.Now().UTC()
	return &GetPetViewResult{
		Pet:           buildPetView(p, sessionStart, now),
		SessionActive: !sessionStart.IsZero(),
		GeneratedAt:   now,
	}, nil
}

// loadPet пробует кеш, затем хранилище.
func (h *GetPetViewHandler) loadPet(ctx context.Context, userID string) (*pet.Pet, error) {
	if h.petCache != nil {
		if cached, err := h.petCache.GetByUserID(ctx, userID); err == nil && cached != nil {
			return cached, nil
		}
	}

	p, err := h.petRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if h.petCache != nil {
		_ = h.petCache.SetByUserID(ctx, p, h.cacheTTL)
	}
	return p, nil
}

// buildPetView собирает DTO из живых значений.
func buildPetView(p *pet.Pet, sessionStart, now time.Time) PetViewDTO {
	vitals := p.CurrentVitals(sessionStart, now)
	dead, cause := p.EvaluateDeath(sessionStart, now)
	stage := pet.StageFor(p.Level)

	nutrition := make(map[string]int, len(pet.NutrientKeys))
	for _, k := range pet.NutrientKeys {
		nutrition[string(k)] = vitals.Nutrition.Get(k)
	}

	view := PetViewDTO{
		ID:          p.ID,
		Name:        p.Name,
		Sprite:      string(p.CharacterSprite),
		Room:        string(p.RoomType),
		MBTI:        string(p.Personality()),
		Level:       int(p.Level),
		Experience:  int(p.Experience),
		ExpProgress: pet.ExpProgress(p.Experience),
		Stage:       stage.Name,
		StageEmoji:  stage.Emoji,
		StatusEmoji: p.StatusEmoji(sessionStart, now),
		Vitals: VitalsDTO{
			Hunger:         vitals.Hunger,
			Nutrition:      nutrition,
			NutritionScore: pet.NutritionScore(vitals.Nutrition),
			Boredom:        vitals.Boredom,
			Intelligence:   vitals.Intelligence,
		},
		IsDead:        dead,
		Points:        int(p.Points),
		FoodInventory: p.FoodInventory.Clone(),
		Cooldowns: map[string]CooldownDTO{
			"study": cooldownState(p.LastStudiedAt, now, cooldown.Study),
			"chat":  cooldownState(p.LastChattedAt, now, cooldown.Chat),
		},
	}

	if dead {
		view.CauseOfDeath = string(cause)
		view.PenaltyRemainingSeconds = int(p.PenaltyRemaining(now).Seconds())
	}
	return view
}

// cooldownState собирает DTO одного кулдауна.
func cooldownState(lastAt, now time.Time, window time.Duration) CooldownDTO {
	remaining := cooldown.Remaining(lastAt, now, window)
	return CooldownDTO{
		Available:        remaining == 0,
		RemainingSeconds: int(remaining.Seconds()),
	}
}
