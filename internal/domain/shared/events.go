// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Pet lifecycle events
	EventPetCreated  EventType = "pet.created"
	EventPetDied     EventType = "pet.died"
	EventPetRevived  EventType = "pet.revived"
	EventPetReplaced EventType = "pet.replaced"
	EventPetFed      EventType = "pet.fed"
	EventPetPlayed   EventType = "pet.played"

	// Progression events
	EventExpGained EventType = "progress.exp_gained"
	EventLevelUp   EventType = "progress.level_up"
	EventStageUp   EventType = "progress.stage_up"

	// Study events
	EventStudyRecorded   EventType = "study.recorded"
	EventStudyLogEvicted EventType = "study.log_evicted"
	EventNotesForgotten  EventType = "study.notes_forgotten"
	EventExamTaken       EventType = "study.exam_taken"
	EventChatExchanged   EventType = "study.chat_exchanged"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventLeaderboardUpdated EventType = "leaderboard.updated"

	// Session events
	EventSessionStarted EventType = "session.started"
	EventSessionExpired EventType = "session.expired"

	// Economy events
	EventOrderCreated     EventType = "economy.order_created"
	EventPaymentCompleted EventType = "economy.payment_completed"
	EventFoodPurchased    EventType = "economy.food_purchased"
	EventItemPurchased    EventType = "economy.item_purchased"

	// Classroom events
	EventClassroomCreated EventType = "classroom.created"
	EventClassroomJoined  EventType = "classroom.joined"

	// User events
	EventUserRegistered EventType = "user.registered"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Pet Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// PetCreatedEvent is emitted when a new pet hatches.
type PetCreatedEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	PetName     string `json:"pet_name"`
	Sprite      string `json:"sprite"`
	MBTI        string `json:"mbti"`
	Replacement bool   `json:"replacement"` // true when replacing a dead pet
}

// Payload implements Event interface.
func (e PetCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"pet_name":    e.PetName,
		"sprite":      e.Sprite,
		"mbti":        e.MBTI,
		"replacement": e.Replacement,
	}
}

// NewPetCreatedEvent creates a new PetCreatedEvent.
func NewPetCreatedEvent(petID, userID, petName, sprite, mbti string, replacement bool) PetCreatedEvent {
	return PetCreatedEvent{
		BaseEvent:   NewBaseEvent(EventPetCreated, petID),
		UserID:      userID,
		PetName:     petName,
		Sprite:      sprite,
		MBTI:        mbti,
		Replacement: replacement,
	}
}

// PetDiedEvent is emitted when a pet's death is confirmed.
type PetDiedEvent struct {
	BaseEvent
	UserID  string    `json:"user_id"`
	PetName string    `json:"pet_name"`
	Cause   string    `json:"cause"`
	Level   int       `json:"level"`
	DiedAt  time.Time `json:"died_at"`
}

// Payload implements Event interface.
func (e PetDiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"pet_name": e.PetName,
		"cause":    e.Cause,
		"level":    e.Level,
		"died_at":  e.DiedAt,
	}
}

// NewPetDiedEvent creates a new PetDiedEvent.
func NewPetDiedEvent(petID, userID, petName, cause string, level int, diedAt time.Time) PetDiedEvent {
	return PetDiedEvent{
		BaseEvent: NewBaseEvent(EventPetDied, petID),
		UserID:    userID,
		PetName:   petName,
		Cause:     cause,
		Level:     level,
		DiedAt:    diedAt,
	}
}

// PetRevivedEvent is emitted when a pet is brought back with a revive potion.
type PetRevivedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	PetName string `json:"pet_name"`
}

// Payload implements Event interface.
func (e PetRevivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"pet_name": e.PetName,
	}
}

// NewPetRevivedEvent creates a new PetRevivedEvent.
func NewPetRevivedEvent(petID, userID, petName string) PetRevivedEvent {
	return PetRevivedEvent{
		BaseEvent: NewBaseEvent(EventPetRevived, petID),
		UserID:    userID,
		PetName:   petName,
	}
}

// PetFedEvent is emitted when a pet is fed.
type PetFedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	FoodID    string `json:"food_id"`
	NewHunger int    `json:"new_hunger"`
}

// Payload implements Event interface.
func (e PetFedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"food_id":    e.FoodID,
		"new_hunger": e.NewHunger,
	}
}

// NewPetFedEvent creates a new PetFedEvent.
func NewPetFedEvent(petID, userID, foodID string, newHunger int) PetFedEvent {
	return PetFedEvent{
		BaseEvent: NewBaseEvent(EventPetFed, petID),
		UserID:    userID,
		FoodID:    foodID,
		NewHunger: newHunger,
	}
}

// PetPlayedEvent is emitted after a minigame session.
type PetPlayedEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	GameID     string `json:"game_id"`
	NewBoredom int    `json:"new_boredom"`
}

// Payload implements Event interface.
func (e PetPlayedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"game_id":     e.GameID,
		"new_boredom": e.NewBoredom,
	}
}

// NewPetPlayedEvent creates a new PetPlayedEvent.
func NewPetPlayedEvent(petID, userID, gameID string, newBoredom int) PetPlayedEvent {
	return PetPlayedEvent{
		BaseEvent:  NewBaseEvent(EventPetPlayed, petID),
		UserID:     userID,
		GameID:     gameID,
		NewBoredom: newBoredom,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// ExpGainedEvent is emitted when a pet gains experience.
type ExpGainedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // "study", "exam", "feed"
}

// Payload implements Event interface.
func (e ExpGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewExpGainedEvent creates a new ExpGainedEvent.
func NewExpGainedEvent(petID, userID string, amount, newTotal int, source string) ExpGainedEvent {
	return ExpGainedEvent{
		BaseEvent: NewBaseEvent(EventExpGained, petID),
		UserID:    userID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a pet reaches a new level.
type LevelUpEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	PetName      string `json:"pet_name"`
	OldLevel     int    `json:"old_level"`
	NewLevel     int    `json:"new_level"`
	StageChanged bool   `json:"stage_changed"`
	NewStage     string `json:"new_stage,omitempty"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"pet_name":      e.PetName,
		"old_level":     e.OldLevel,
		"new_level":     e.NewLevel,
		"stage_changed": e.StageChanged,
		"new_stage":     e.NewStage,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(petID, userID, petName string, oldLevel, newLevel int, stageChanged bool, newStage string) LevelUpEvent {
	eventType := EventLevelUp
	if stageChanged {
		eventType = EventStageUp
	}
	return LevelUpEvent{
		BaseEvent:    NewBaseEvent(eventType, petID),
		UserID:       userID,
		PetName:      petName,
		OldLevel:     oldLevel,
		NewLevel:     newLevel,
		StageChanged: stageChanged,
		NewStage:     newStage,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Study Events
// ═══════════════════════════════════════════════════════════════════════════

// StudyRecordedEvent is emitted when a study note is saved.
type StudyRecordedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	PetID            string `json:"pet_id"`
	NoteLength       int    `json:"note_length"`
	ExpGained        int    `json:"exp_gained"`
	PointsGained     int    `json:"points_gained"`
	IntelligenceGain int    `json:"intelligence_gain"`
}

// Payload implements Event interface.
func (e StudyRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":           e.UserID,
		"pet_id":            e.PetID,
		"note_length":       e.NoteLength,
		"exp_gained":        e.ExpGained,
		"points_gained":     e.PointsGained,
		"intelligence_gain": e.IntelligenceGain,
	}
}

// NewStudyRecordedEvent creates a new StudyRecordedEvent.
func NewStudyRecordedEvent(logID, userID, petID string, noteLength, exp, points, intelligence int) StudyRecordedEvent {
	return StudyRecordedEvent{
		BaseEvent:        NewBaseEvent(EventStudyRecorded, logID),
		UserID:           userID,
		PetID:            petID,
		NoteLength:       noteLength,
		ExpGained:        exp,
		PointsGained:     points,
		IntelligenceGain: intelligence,
	}
}

// ExamTakenEvent is emitted when the pet answers an exam and the grade is in.
type ExamTakenEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	PetID     string `json:"pet_id"`
	ExamID    int64  `json:"exam_id"`
	IsCorrect bool   `json:"is_correct"`
	Score     int    `json:"score"`
}

// Payload implements Event interface.
func (e ExamTakenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"pet_id":     e.PetID,
		"exam_id":    e.ExamID,
		"is_correct": e.IsCorrect,
		"score":      e.Score,
	}
}

// NewExamTakenEvent creates a new ExamTakenEvent.
func NewExamTakenEvent(resultID, userID, petID string, examID int64, isCorrect bool, score int) ExamTakenEvent {
	return ExamTakenEvent{
		BaseEvent: NewBaseEvent(EventExamTaken, resultID),
		UserID:    userID,
		PetID:     petID,
		ExamID:    examID,
		IsCorrect: isCorrect,
		Score:     score,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RankChangedEvent is emitted when a pet's leaderboard rank changes.
type RankChangedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	PetName string `json:"pet_name"`
	OldRank int    `json:"old_rank"`
	NewRank int    `json:"new_rank"`
	Scope   string `json:"scope"` // "global" or "classroom:<id>"
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"pet_name": e.PetName,
		"old_rank": e.OldRank,
		"new_rank": e.NewRank,
		"scope":    e.Scope,
	}
}

// Improved returns true if the rank climbed (lower numbers are better).
func (e RankChangedEvent) Improved() bool {
	return e.OldRank > 0 && e.NewRank < e.OldRank
}

// NewRankChangedEvent creates a new RankChangedEvent.
func NewRankChangedEvent(petID, userID, petName string, oldRank, newRank int, scope string) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent: NewBaseEvent(EventRankChanged, petID),
		UserID:    userID,
		PetName:   petName,
		OldRank:   oldRank,
		NewRank:   newRank,
		Scope:     scope,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Economy Events
// ═══════════════════════════════════════════════════════════════════════════

// PaymentCompletedEvent is emitted when a Toss payment is confirmed.
type PaymentCompletedEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	PackageID    string `json:"package_id"`
	GemsCredited int    `json:"gems_credited"`
	AmountKRW    int64  `json:"amount_krw"`
}

// Payload implements Event interface.
func (e PaymentCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"package_id":    e.PackageID,
		"gems_credited": e.GemsCredited,
		"amount_krw":    e.AmountKRW,
	}
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent.
func NewPaymentCompletedEvent(orderID, userID, packageID string, gems int, amountKRW int64) PaymentCompletedEvent {
	return PaymentCompletedEvent{
		BaseEvent:    NewBaseEvent(EventPaymentCompleted, orderID),
		UserID:       userID,
		PackageID:    packageID,
		GemsCredited: gems,
		AmountKRW:    amountKRW,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Session Events
// ═══════════════════════════════════════════════════════════════════════════

// SessionStartedEvent is emitted when a browser session begins.
type SessionStartedEvent struct {
	BaseEvent
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// Payload implements Event interface.
func (e SessionStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"started_at": e.StartedAt,
	}
}

// NewSessionStartedEvent creates a new SessionStartedEvent.
func NewSessionStartedEvent(userID string, startedAt time.Time) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(EventSessionStarted, userID),
		UserID:    userID,
		StartedAt: startedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Classroom Events
// ═══════════════════════════════════════════════════════════════════════════

// ClassroomJoinedEvent is published when a student joins a classroom.
type ClassroomJoinedEvent struct {
	BaseEvent
	ClassroomID   string `json:"classroom_id"`
	ClassroomName string `json:"classroom_name"`
	UserID        string `json:"user_id"`
}

// Payload returns the event payload.
func (e ClassroomJoinedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"classroom_id":   e.ClassroomID,
		"classroom_name": e.ClassroomName,
		"user_id":        e.UserID,
	}
}

// NewClassroomJoinedEvent creates a new ClassroomJoinedEvent.
func NewClassroomJoinedEvent(classroomID, classroomName, userID string) ClassroomJoinedEvent {
	return ClassroomJoinedEvent{
		BaseEvent:     NewBaseEvent(EventClassroomJoined, classroomID),
		ClassroomID:   classroomID,
		ClassroomName: classroomName,
		UserID:        userID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is published when a new account is created.
type UserRegisteredEvent struct {
	BaseEvent
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Payload returns the event payload.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"display_name": e.DisplayName,
		"role":         e.Role,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, displayName, role string) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventUserRegistered, userID),
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
