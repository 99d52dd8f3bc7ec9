// Package pet содержит доменную модель питомца Studygotchi.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package pet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// Скорости распада и границы ресурсов. Значения выверены с веб-клиентом -
// менять их можно только синхронно с ним.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// MaxHunger - максимальная сытость питомца.
	MaxHunger = 100

	// MaxBoredom - максимальный индекс скуки. При достижении питомец умирает.
	MaxBoredom = 200

	// MaxIntelligence - максимальный интеллект.
	MaxIntelligence = 200

	// MaxNutrient - максимум каждого из пяти нутриентов.
	MaxNutrient = 100

	// HungerDecayPerHour - падение сытости за час активной сессии.
	HungerDecayPerHour = 2

	// NutrientDecayPerHour - падение каждого нутриента за час.
	NutrientDecayPerHour = 3

	// IntelligenceDecayPerHour - падение интеллекта за час без учёбы.
	IntelligenceDecayPerHour = 1

	// BoredomGrowthPerHour - рост скуки за час без игр.
	BoredomGrowthPerHour = 2

	// LowNutrientThreshold - порог дефицита нутриента.
	LowNutrientThreshold = 20

	// ExpToLevelUp - опыт на один уровень.
	ExpToLevelUp = 200

	// ExpPerFeed - опыт за одно кормление.
	ExpPerFeed = 5

	// DeathPenalty - время до выдачи нового питомца после смерти.
	DeathPenalty = 48 * time.Hour

	// ReviveHunger - сытость после воскрешения. Остальные ресурсы не трогаем.
	ReviveHunger = 50

	// InitialIntelligence - интеллект нового питомца.
	InitialIntelligence = 10

	// InitialPoints - стартовые поинты нового питомца.
	InitialPoints = 30

	// DefaultNutrient - стартовое значение каждого нутриента.
	DefaultNutrient = 50
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Experience представляет накопленный опыт питомца.
type Experience int

// IsValid проверяет, что опыт неотрицательный.
func (e Experience) IsValid() bool {
	return e >= 0
}

// Add складывает опыт. Опыт монотонно растёт, кроме явного "забывания".
func (e Experience) Add(delta Experience) Experience {
	return e + delta
}

// Level представляет уровень питомца, вычисляемый из опыта.
// Хранимый уровень не должен расходиться с этой формулой:
// любой путь записи обязан пересчитать уровень из опыта.
type Level int

// CalculateLevel вычисляет уровень из опыта: floor(exp/200) + 1.
func CalculateLevel(exp Experience) Level {
	if exp < 0 {
		return 1
	}
	return Level(int(exp)/ExpToLevelUp) + 1
}

// ExpProgress возвращает прогресс внутри текущего уровня (exp mod 200).
func ExpProgress(exp Experience) int {
	if exp < 0 {
		return 0
	}
	return int(exp) % ExpToLevelUp
}

// Intelligence представляет интеллект питомца, ограниченный [0, MaxIntelligence].
type Intelligence int

// Clamp ограничивает значение допустимым диапазоном.
func (i Intelligence) Clamp() Intelligence {
	if i < 0 {
		return 0
	}
	if i > MaxIntelligence {
		return MaxIntelligence
	}
	return i
}

// Points представляет игровую валюту питомца (зарабатывается учёбой и играми).
type Points int

// IsValid проверяет, что баланс неотрицательный.
func (p Points) IsValid() bool {
	return p >= 0
}

// NutrientKey идентифицирует один из пяти нутриентов.
type NutrientKey string

const (
	NutrientCarbs   NutrientKey = "carbs"
	NutrientProtein NutrientKey = "protein"
	NutrientFat     NutrientKey = "fat"
	NutrientVitamin NutrientKey = "vitamin"
	NutrientMineral NutrientKey = "mineral"
)

// NutrientKeys - фиксированный порядок нутриентов для детерминированных обходов.
var NutrientKeys = []NutrientKey{
	NutrientCarbs, NutrientProtein, NutrientFat, NutrientVitamin, NutrientMineral,
}

// Nutrition - состояние пяти нутриентов, каждый в [0, MaxNutrient].
type Nutrition map[NutrientKey]int

// DefaultNutrition возвращает стартовую карту нутриентов (все по 50).
func DefaultNutrition() Nutrition {
	n := make(Nutrition, len(NutrientKeys))
	for _, k := range NutrientKeys {
		n[k] = DefaultNutrient
	}
	return n
}

// Clone создаёт независимую копию карты нутриентов.
func (n Nutrition) Clone() Nutrition {
	out := make(Nutrition, len(NutrientKeys))
	for _, k := range NutrientKeys {
		out[k] = n.Get(k)
	}
	return out
}

// Get возвращает значение нутриента, подставляя дефолт для отсутствующего ключа.
func (n Nutrition) Get(k NutrientKey) int {
	if n == nil {
		return DefaultNutrient
	}
	v, ok := n[k]
	if !ok {
		return DefaultNutrient
	}
	return v
}

// FoodInventory - инвентарь еды питомца: ID еды -> количество.
type FoodInventory map[string]int

// Clone создаёт независимую копию инвентаря.
func (f FoodInventory) Clone() FoodInventory {
	out := make(FoodInventory, len(f))
	for id, qty := range f {
		out[id] = qty
	}
	return out
}

// Take списывает одну единицу еды. Нулевые позиции удаляются из карты.
func (f FoodInventory) Take(foodID string) bool {
	if f[foodID] <= 0 {
		return false
	}
	f[foodID]--
	if f[foodID] <= 0 {
		delete(f, foodID)
	}
	return true
}

// DefaultFoodInventory - стартовый набор еды нового питомца.
func DefaultFoodInventory() FoodInventory {
	return FoodInventory{"rice": 3, "apple": 2, "milk": 2}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PET
// ══════════════════════════════════════════════════════════════════════════════

// Pet - центральная сущность системы. У пользователя не больше одного
// живого питомца. Все витальные ресурсы хранятся как чекпоинты
// (значение + метка времени), живые значения выводятся в vitals.go.
type Pet struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// UserID - владелец питомца.
	UserID string

	// Name - отображаемое имя.
	Name string

	// Level - хранимый уровень. Производное поле: всегда пересчитывается
	// из Experience при записи (см. CalculateLevel).
	Level Level

	// Experience - накопленный опыт.
	Experience Experience

	// Intelligence - хранимый чекпоинт интеллекта.
	Intelligence Intelligence

	// Hunger - хранимый чекпоинт сытости в [0, MaxHunger].
	Hunger int

	// Nutrition - хранимые чекпоинты пяти нутриентов.
	Nutrition Nutrition

	// IsDead - липкий флаг смерти. Однажды установленный, сбрасывается
	// только явным воскрешением.
	IsDead bool

	// LastFedAt - чекпоинт кормления (сытость и нутриенты).
	LastFedAt time.Time

	// LastStudiedAt - чекпоинт учёбы (распад интеллекта).
	// Нулевое значение = учёбы не было, базой служит CreatedAt.
	LastStudiedAt time.Time

	// LastPlayedAt - чекпоинт игры. Скука не хранит величину вообще:
	// она целиком реконструируется из времени с последней игры.
	LastPlayedAt time.Time

	// LastChattedAt - чекпоинт разговора (кулдаун чата).
	LastChattedAt time.Time

	// DiedAt - момент фиксации смерти. Устанавливается один раз,
	// задаёт окно пенальти до выдачи нового питомца.
	DiedAt time.Time

	// CharacterSprite - внешний вид (один из 22 спрайтов).
	CharacterSprite CharacterSprite

	// RoomType - комната питомца.
	RoomType RoomType

	// MBTI - характер питомца для диалогов.
	MBTI MBTIType

	// FoodInventory - инвентарь еды.
	FoodInventory FoodInventory

	// Points - баланс игровой валюты.
	Points Points

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - невалидное имя питомца.
	ErrInvalidName = errors.New("invalid pet name: must be 1-10 chars")

	// ErrInvalidUserID - невалидный идентификатор владельца.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrNotDead - питомец жив, воскрешать нечего.
	ErrNotDead = errors.New("pet is not dead")

	// ErrDead - питомец мёртв, действие недоступно.
	ErrDead = errors.New("pet is dead")

	// ErrPenaltyNotElapsed - окно пенальти после смерти ещё не истекло.
	ErrPenaltyNotElapsed = errors.New("death penalty window has not elapsed")

	// ErrNotInInventory - еды нет в инвентаре.
	ErrNotInInventory = errors.New("food not in inventory")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewPetParams содержит параметры для создания нового питомца.
type NewPetParams struct {
	ID              string
	UserID          string
	Name            string
	CharacterSprite CharacterSprite
	RoomType        RoomType
	MBTI            MBTIType
}

// NewPet создаёт нового питомца с полным сбросом статов.
// Новый питомец: уровень 1, опыт 0, интеллект 10, сытость 100,
// нутриенты по 50, стартовая еда, 30 поинтов.
func NewPet(params NewPetParams) (*Pet, error) {
	if params.ID == "" {
		return nil, errors.New("pet id is required")
	}

	if params.UserID == "" {
		return nil, ErrInvalidUserID
	}

	name := strings.TrimSpace(params.Name)
	if len([]rune(name)) == 0 || len([]rune(name)) > 10 {
		return nil, ErrInvalidName
	}

	sprite := params.CharacterSprite
	if !sprite.IsValid() {
		sprite = SpriteRabbit
	}

	room := params.RoomType
	if !room.IsValid() {
		room = RoomBedroom
	}

	mbti := params.MBTI
	if !mbti.IsValid() {
		mbti = DeriveMBTI(params.ID)
	}

	now := time.Now().UTC()

	return &Pet{
		ID:              params.ID,
		UserID:          params.UserID,
		Name:            name,
		Level:           1,
		Experience:      0,
		Intelligence:    InitialIntelligence,
		Hunger:          MaxHunger,
		Nutrition:       DefaultNutrition(),
		IsDead:          false,
		LastFedAt:       now,
		LastStudiedAt:   now,
		LastPlayedAt:    now,
		CharacterSprite: sprite,
		RoomType:        room,
		MBTI:            mbti,
		FoodInventory:   DefaultFoodInventory(),
		Points:          InitialPoints,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// Personality возвращает характер питомца. Если MBTI не записан,
// он детерминированно выводится из хеша ID - старые записи без колонки
// mbti получают стабильный характер.
func (p *Pet) Personality() MBTIType {
	if p.MBTI.IsValid() {
		return p.MBTI
	}
	return DeriveMBTI(p.ID)
}

// GainExperience добавляет опыт и пересчитывает уровень.
// Возвращает true, если уровень вырос.
func (p *Pet) GainExperience(delta Experience) bool {
	if delta <= 0 {
		return false
	}
	oldLevel := CalculateLevel(p.Experience)
	p.Experience = p.Experience.Add(delta)
	p.Level = CalculateLevel(p.Experience)
	p.UpdatedAt = time.Now().UTC()
	return p.Level > oldLevel
}

// RecordStudy применяет результат учёбы: прирост интеллекта, поинтов,
// опыта и сдвиг чекпоинта LastStudiedAt. Прирост считает вызывающая
// сторона (он зависит от длины заметки).
func (p *Pet) RecordStudy(intelligenceGain Intelligence, pointsGain Points, expGain Experience, at time.Time) bool {
	p.Intelligence = (p.Intelligence + intelligenceGain).Clamp()
	p.Points += pointsGain
	p.LastStudiedAt = at
	leveled := p.GainExperience(expGain)
	p.UpdatedAt = time.Now().UTC()
	return leveled
}

// ForgetNotes применяет потерю интеллекта при удалении заметок.
func (p *Pet) ForgetNotes(intelligenceLoss Intelligence) {
	p.Intelligence = (p.Intelligence - intelligenceLoss).Clamp()
	p.UpdatedAt = time.Now().UTC()
}

// ApplyExamResult применяет результат экзамена: опыт и интеллект,
// чекпоинт учёбы сдвигается (экзамен - тоже учёба).
// Возвращает true, если уровень вырос.
func (p *Pet) ApplyExamResult(correct bool, at time.Time) bool {
	var expGain Experience
	var intGain Intelligence
	if correct {
		expGain, intGain = 50, 10
	} else {
		expGain, intGain = 10, 2
	}
	p.Intelligence = (p.Intelligence + intGain).Clamp()
	p.LastStudiedAt = at
	return p.GainExperience(expGain)
}

// Feed кормит питомца: восстанавливает сытость и нутриенты из еды,
// списывает её из инвентаря. Чекпоинты пересчитываются от живых
// значений на момент кормления (liveHunger, liveNutrition).
func (p *Pet) Feed(food Food, liveHunger int, liveNutrition Nutrition, at time.Time) error {
	if p.IsDead {
		return ErrDead
	}
	if !p.FoodInventory.Take(food.ID) {
		return ErrNotInInventory
	}

	newHunger := liveHunger + food.HungerRestore
	if newHunger > MaxHunger {
		newHunger = MaxHunger
	}
	p.Hunger = newHunger

	next := liveNutrition.Clone()
	for _, k := range NutrientKeys {
		v := next.Get(k) + food.Nutrients.Get(k)
		if v > MaxNutrient {
			v = MaxNutrient
		}
		next[k] = v
	}
	p.Nutrition = next
	p.LastFedAt = at
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordPlay фиксирует сыгранную мини-игру. Скука не хранится как
// величина, поэтому новая скука кодируется откатом чекпоинта:
// LastPlayedAt = now - newBoredom/BoredomGrowthPerHour часов.
func (p *Pet) RecordPlay(liveBoredom, reduction int, pointsGain Points, at time.Time) {
	newBoredom := liveBoredom - reduction
	if newBoredom < 0 {
		newBoredom = 0
	}
	rewind := time.Duration(float64(newBoredom) / BoredomGrowthPerHour * float64(time.Hour))
	p.LastPlayedAt = at.Add(-rewind)
	p.Points += pointsGain
	p.UpdatedAt = time.Now().UTC()
}

// MarkChatted сдвигает чекпоинт разговора (старт кулдауна чата).
func (p *Pet) MarkChatted(at time.Time) {
	p.LastChattedAt = at
	p.UpdatedAt = time.Now().UTC()
}

// ConfirmDeath фиксирует вычисленную смерть в хранимых полях.
// Флаг липкий: повторные вызовы не двигают DiedAt.
func (p *Pet) ConfirmDeath(at time.Time) bool {
	if p.IsDead && !p.DiedAt.IsZero() {
		return false
	}
	p.IsDead = true
	if p.DiedAt.IsZero() {
		p.DiedAt = at
	}
	p.UpdatedAt = time.Now().UTC()
	return true
}

// Revive воскрешает питомца: снимает флаги смерти и ставит сытость
// на середину шкалы. Остальные статы сознательно не сбрасываются.
func (p *Pet) Revive(at time.Time) error {
	if !p.IsDead {
		return ErrNotDead
	}
	p.IsDead = false
	p.DiedAt = time.Time{}
	p.Hunger = ReviveHunger
	p.LastFedAt = at
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// PenaltyElapsed проверяет, истекло ли окно пенальти после смерти.
func (p *Pet) PenaltyElapsed(now time.Time) bool {
	if p.DiedAt.IsZero() {
		return false
	}
	return now.Sub(p.DiedAt) >= DeathPenalty
}

// PenaltyRemaining возвращает остаток окна пенальти.
func (p *Pet) PenaltyRemaining(now time.Time) time.Duration {
	if p.DiedAt.IsZero() {
		return 0
	}
	remaining := DeathPenalty - now.Sub(p.DiedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SpendPoints списывает поинты. Возвращает false при нехватке.
func (p *Pet) SpendPoints(cost Points) bool {
	if cost < 0 || p.Points < cost {
		return false
	}
	p.Points -= cost
	p.UpdatedAt = time.Now().UTC()
	return true
}

// AddFood добавляет еду в инвентарь (покупка).
func (p *Pet) AddFood(foodID string, qty int) {
	if qty <= 0 {
		return
	}
	if p.FoodInventory == nil {
		p.FoodInventory = make(FoodInventory)
	}
	p.FoodInventory[foodID] += qty
	p.UpdatedAt = time.Now().UTC()
}

// String возвращает строковое представление питомца для логирования.
func (p *Pet) String() string {
	return fmt.Sprintf(
		"Pet{ID: %s, Name: %s, Lv: %d, Exp: %d, Int: %d, Dead: %t}",
		p.ID, p.Name, p.Level, p.Experience, p.Intelligence, p.IsDead,
	)
}

// Clone создаёт глубокую копию питомца.
func (p *Pet) Clone() *Pet {
	if p == nil {
		return nil
	}

	clone := *p
	clone.Nutrition = p.Nutrition.Clone()
	clone.FoodInventory = p.FoodInventory.Clone()
	return &clone
}
