package pet

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События, которые происходят в домене питомцев и на которые могут
// реагировать другие части системы (уведомления, лидерборд и т.д.).
// ══════════════════════════════════════════════════════════════════════════════

// Event представляет базовый интерфейс доменного события.
type Event interface {
	// EventName возвращает имя события.
	EventName() string

	// OccurredAt возвращает время события.
	OccurredAt() time.Time

	// AggregateID возвращает ID агрегата (питомца).
	AggregateID() string
}

// BaseEvent содержит общие поля для всех событий.
type BaseEvent struct {
	Timestamp time.Time
	PetID     string
	UserID    string
	PetName   string
}

// OccurredAt возвращает время события.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID возвращает ID питомца.
func (e BaseEvent) AggregateID() string {
	return e.PetID
}

func makeBase(p *Pet) BaseEvent {
	return BaseEvent{
		Timestamp: time.Now().UTC(),
		PetID:     p.ID,
		UserID:    p.UserID,
		PetName:   p.Name,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreatedEvent - питомец создан.
type CreatedEvent struct {
	BaseEvent
	CharacterSprite CharacterSprite
	MBTI            MBTIType
	Replacement     bool
}

// EventName возвращает имя события.
func (e CreatedEvent) EventName() string {
	return "pet.created"
}

// NewCreatedEvent создаёт событие создания питомца.
func NewCreatedEvent(p *Pet, replacement bool) CreatedEvent {
	return CreatedEvent{
		BaseEvent:       makeBase(p),
		CharacterSprite: p.CharacterSprite,
		MBTI:            p.Personality(),
		Replacement:     replacement,
	}
}

// DiedEvent - питомец умер.
type DiedEvent struct {
	BaseEvent
	Cause   CauseOfDeath
	DiedAt  time.Time
	Level   Level
	Penalty time.Duration
}

// EventName возвращает имя события.
func (e DiedEvent) EventName() string {
	return "pet.died"
}

// NewDiedEvent создаёт событие смерти питомца.
func NewDiedEvent(p *Pet, cause CauseOfDeath) DiedEvent {
	return DiedEvent{
		BaseEvent: makeBase(p),
		Cause:     cause,
		DiedAt:    p.DiedAt,
		Level:     p.Level,
		Penalty:   DeathPenalty,
	}
}

// RevivedEvent - питомец воскрешён.
type RevivedEvent struct {
	BaseEvent
	Hunger int
}

// EventName возвращает имя события.
func (e RevivedEvent) EventName() string {
	return "pet.revived"
}

// NewRevivedEvent создаёт событие воскрешения.
func NewRevivedEvent(p *Pet) RevivedEvent {
	return RevivedEvent{
		BaseEvent: makeBase(p),
		Hunger:    p.Hunger,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CARE EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// FedEvent - питомца покормили.
type FedEvent struct {
	BaseEvent
	FoodID    string
	NewHunger int
}

// EventName возвращает имя события.
func (e FedEvent) EventName() string {
	return "pet.fed"
}

// NewFedEvent создаёт событие кормления.
func NewFedEvent(p *Pet, foodID string) FedEvent {
	return FedEvent{
		BaseEvent: makeBase(p),
		FoodID:    foodID,
		NewHunger: p.Hunger,
	}
}

// PlayedEvent - с питомцем сыграли в мини-игру.
type PlayedEvent struct {
	BaseEvent
	GameID       string
	NewBoredom   int
	PointsEarned Points
}

// EventName возвращает имя события.
func (e PlayedEvent) EventName() string {
	return "pet.played"
}

// NewPlayedEvent создаёт событие игры.
func NewPlayedEvent(p *Pet, gameID string, newBoredom int, pointsEarned Points) PlayedEvent {
	return PlayedEvent{
		BaseEvent:    makeBase(p),
		GameID:       gameID,
		NewBoredom:   newBoredom,
		PointsEarned: pointsEarned,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// LevelUpEvent - питомец поднял уровень.
type LevelUpEvent struct {
	BaseEvent
	OldLevel Level
	NewLevel Level
	OldStage Stage
	NewStage Stage
}

// EventName возвращает имя события.
func (e LevelUpEvent) EventName() string {
	return "pet.level_up"
}

// StageChanged сообщает, сменилась ли стадия развития.
func (e LevelUpEvent) StageChanged() bool {
	return e.OldStage.MinLevel != e.NewStage.MinLevel
}

// NewLevelUpEvent создаёт событие повышения уровня.
func NewLevelUpEvent(p *Pet, oldLevel Level) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: makeBase(p),
		OldLevel:  oldLevel,
		NewLevel:  p.Level,
		OldStage:  StageFor(oldLevel),
		NewStage:  StageFor(p.Level),
	}
}
