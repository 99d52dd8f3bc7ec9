// Package notification содержит доменную модель уведомлений Studygotchi.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// TriggerRuleID представляет уникальный идентификатор правила.
type TriggerRuleID string

// String возвращает строковое представление ID.
func (id TriggerRuleID) String() string { return string(id) }

// ConditionType определяет тип условия срабатывания.
type ConditionType string

// Числовое значение условия зависит от типа: для событий-флагов
// (pet_died, pet_revived) это 1, для уровней питомца — сама метрика,
// для рейтинга — смещение позиции.
const (
	ConditionTypePetDied          ConditionType = "pet_died"
	ConditionTypePetRevived       ConditionType = "pet_revived"
	ConditionTypeHungerLevel      ConditionType = "hunger_level"
	ConditionTypeBoredomLevel     ConditionType = "boredom_level"
	ConditionTypeLowNutrients     ConditionType = "low_nutrients"
	ConditionTypeLevelUp          ConditionType = "level_up"
	ConditionTypeStageUp          ConditionType = "stage_up"
	ConditionTypeRankChange       ConditionType = "rank_change"
	ConditionTypeTopEntered       ConditionType = "top_entered"
	ConditionTypeExamGraded       ConditionType = "exam_graded"
	ConditionTypeNewExam          ConditionType = "new_exam"
	ConditionTypePaymentCompleted ConditionType = "payment_completed"
	ConditionTypeInactiveDays     ConditionType = "inactive_days"
	ConditionTypeScheduled        ConditionType = "scheduled"
	ConditionTypeClassroomJoined  ConditionType = "classroom_joined"
)

var knownConditionTypes = map[ConditionType]struct{}{
	ConditionTypePetDied: {}, ConditionTypePetRevived: {},
	ConditionTypeHungerLevel: {}, ConditionTypeBoredomLevel: {},
	ConditionTypeLowNutrients: {}, ConditionTypeLevelUp: {},
	ConditionTypeStageUp: {}, ConditionTypeRankChange: {},
	ConditionTypeTopEntered: {}, ConditionTypeExamGraded: {},
	ConditionTypeNewExam: {}, ConditionTypePaymentCompleted: {},
	ConditionTypeInactiveDays: {}, ConditionTypeScheduled: {},
	ConditionTypeClassroomJoined: {},
}

// IsValid проверяет корректность типа условия.
func (ct ConditionType) IsValid() bool {
	_, ok := knownConditionTypes[ct]
	return ok
}

// ComparisonOperator определяет оператор сравнения для условий.
type ComparisonOperator string

const (
	OpEqual          ComparisonOperator = "eq"
	OpGreaterThan    ComparisonOperator = "gt"
	OpGreaterOrEqual ComparisonOperator = "gte"
	OpLessThan       ComparisonOperator = "lt"
	OpLessOrEqual    ComparisonOperator = "lte"
	OpBetween        ComparisonOperator = "between"
	OpIn             ComparisonOperator = "in"
)

// Condition — одно условие срабатывания. Все условия правила должны
// выполниться одновременно (логическое И).
type Condition struct {
	Type     ConditionType
	Operator ComparisonOperator

	// Value используется скалярными операторами, MinValue/MaxValue —
	// оператором between, ListValues — оператором in.
	Value      int
	MinValue   int
	MaxValue   int
	ListValues []int
}

// NewCondition создаёт скалярное условие.
func NewCondition(condType ConditionType, operator ComparisonOperator, value int) (Condition, error) {
	if !condType.IsValid() {
		return Condition{}, ErrInvalidConditionType
	}
	switch operator {
	case OpEqual, OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
	default:
		return Condition{}, ErrInvalidOperator
	}
	return Condition{Type: condType, Operator: operator, Value: value}, nil
}

// NewRangeCondition создаёт условие попадания в диапазон (включительно).
func NewRangeCondition(condType ConditionType, min, max int) (Condition, error) {
	if !condType.IsValid() {
		return Condition{}, ErrInvalidConditionType
	}
	if min > max {
		return Condition{}, ErrInvalidRange
	}
	return Condition{Type: condType, Operator: OpBetween, MinValue: min, MaxValue: max}, nil
}

// NewListCondition создаёт условие вхождения в список значений.
func NewListCondition(condType ConditionType, operator ComparisonOperator, values []int) (Condition, error) {
	if !condType.IsValid() {
		return Condition{}, ErrInvalidConditionType
	}
	if operator != OpIn {
		return Condition{}, ErrInvalidOperator
	}
	if len(values) == 0 {
		return Condition{}, ErrEmptyValueList
	}
	return Condition{Type: condType, Operator: operator, ListValues: values}, nil
}

// Evaluate вычисляет условие для фактического значения.
func (c Condition) Evaluate(actual int) bool {
	switch c.Operator {
	case OpEqual:
		return actual == c.Value
	case OpGreaterThan:
		return actual > c.Value
	case OpGreaterOrEqual:
		return actual >= c.Value
	case OpLessThan:
		return actual < c.Value
	case OpLessOrEqual:
		return actual <= c.Value
	case OpBetween:
		return actual >= c.MinValue && actual <= c.MaxValue
	case OpIn:
		for _, v := range c.ListValues {
			if actual == v {
				return true
			}
		}
		return false
	}
	return false
}

// TimeConstraint ограничивает срабатывание часовым окном.
// Окно может пересекать полночь: NewTimeConstraint(21, 9, ...) означает
// «с 21:00 до 9:00».
type TimeConstraint struct {
	HoursStart int
	HoursEnd   int
	Timezone   string
}

// NewTimeConstraint создаёт часовое окно.
func NewTimeConstraint(hoursStart, hoursEnd int, timezone string) (*TimeConstraint, error) {
	if hoursStart < 0 || hoursStart > 23 || hoursEnd < 0 || hoursEnd > 23 {
		return nil, ErrInvalidHours
	}
	return &TimeConstraint{HoursStart: hoursStart, HoursEnd: hoursEnd, Timezone: timezone}, nil
}

// IsAllowed проверяет, попадает ли момент времени в окно.
func (tc *TimeConstraint) IsAllowed(t time.Time) bool {
	if tc.Timezone != "" {
		if loc, err := time.LoadLocation(tc.Timezone); err == nil {
			t = t.In(loc)
		}
	}

	hour := t.Hour()
	if tc.HoursStart <= tc.HoursEnd {
		return hour >= tc.HoursStart && hour < tc.HoursEnd
	}
	return hour >= tc.HoursStart || hour < tc.HoursEnd
}

// RateLimit ограничивает число срабатываний правила для одного
// получателя за период. Счётчик передаётся в TriggerContext.TriggerCount.
type RateLimit struct {
	MaxCount int
	Period   time.Duration
}

// IsExceeded проверяет, исчерпан ли лимит.
func (rl *RateLimit) IsExceeded(currentCount int) bool {
	return currentCount >= rl.MaxCount
}

// TriggerRule определяет, когда и какое уведомление создавать.
// Набор правил собирается при старте приложения и далее не меняется.
type TriggerRule struct {
	ID               TriggerRuleID
	Name             string
	NotificationType NotificationType
	Conditions       []Condition
	TimeConstraint   *TimeConstraint
	RateLimit        *RateLimit
	Priority         Priority

	// TitleTemplate и MessageTemplate рендерятся по TriggerContext.Data.
	TitleTemplate   string
	MessageTemplate string

	IsEnabled bool

	// RequiresUserConsent включает проверку пользовательской настройки
	// с ключом ConsentSettingKey.
	RequiresUserConsent bool
	ConsentSettingKey   string

	// CooldownPeriod — минимальный интервал между срабатываниями
	// для одного получателя.
	CooldownPeriod time.Duration

	// ExpiresAfter — срок жизни созданного уведомления.
	ExpiresAfter time.Duration
}

// NewTriggerRule создаёт правило с валидацией обязательных полей.
// Приоритет берётся из типа уведомления.
func NewTriggerRule(id TriggerRuleID, name string, notifType NotificationType, messageTemplate string) (*TriggerRule, error) {
	if id == "" {
		return nil, ErrInvalidTriggerRuleID
	}
	if name == "" {
		return nil, ErrEmptyRuleName
	}
	if !notifType.IsValid() {
		return nil, ErrInvalidNotificationType
	}
	if messageTemplate == "" {
		return nil, ErrEmptyMessageTemplate
	}

	return &TriggerRule{
		ID:               id,
		Name:             name,
		NotificationType: notifType,
		Priority:         notifType.DefaultPriority(),
		MessageTemplate:  messageTemplate,
		IsEnabled:        true,
		ExpiresAfter:     24 * time.Hour,
	}, nil
}

// AddCondition добавляет условие к правилу.
func (tr *TriggerRule) AddCondition(c Condition) {
	tr.Conditions = append(tr.Conditions, c)
}

// SetTimeConstraint устанавливает часовое окно.
func (tr *TriggerRule) SetTimeConstraint(tc *TimeConstraint) {
	tr.TimeConstraint = tc
}

// SetCooldown устанавливает период охлаждения.
func (tr *TriggerRule) SetCooldown(d time.Duration) {
	tr.CooldownPeriod = d
}

// RequireConsent привязывает правило к пользовательской настройке.
func (tr *TriggerRule) RequireConsent(settingKey string) {
	tr.RequiresUserConsent = true
	tr.ConsentSettingKey = settingKey
}

// TriggerContext — снимок события, против которого вычисляются правила.
type TriggerContext struct {
	UserID    string
	PetID     string
	PushToken PushToken
	Timestamp time.Time

	// Values — фактические значения по типам условий.
	Values map[ConditionType]int

	// UserPreferences — настройки получателя для проверки согласия.
	UserPreferences map[string]bool

	// LastTriggeredAt — когда правило срабатывало для получателя
	// в последний раз. nil, если ещё не срабатывало.
	LastTriggeredAt *time.Time

	// TriggerCount — срабатываний за период RateLimit.
	TriggerCount int

	// Data — данные для шаблонов уведомления.
	Data NotificationData
}

// NewTriggerContext создаёт контекст с текущим временем.
func NewTriggerContext(userID, petID string) *TriggerContext {
	return &TriggerContext{
		UserID:          userID,
		PetID:           petID,
		Timestamp:       time.Now().UTC(),
		Values:          make(map[ConditionType]int),
		UserPreferences: make(map[string]bool),
	}
}

// SetValue устанавливает фактическое значение для типа условия.
func (ctx *TriggerContext) SetValue(condType ConditionType, value int) {
	ctx.Values[condType] = value
}

// SetUserPreference устанавливает настройку получателя.
func (ctx *TriggerContext) SetUserPreference(key string, enabled bool) {
	ctx.UserPreferences[key] = enabled
}

// EvaluationResult — результат вычисления правила.
type EvaluationResult struct {
	ShouldTrigger bool

	// Reason объясняет, почему правило не сработало.
	Reason string
}

func noTrigger(reason string) EvaluationResult {
	return EvaluationResult{Reason: reason}
}

// Evaluate вычисляет правило для контекста. Проверки идут от дешёвых
// к дорогим: флаг, согласие, окно, cooldown, лимит, условия.
func (tr *TriggerRule) Evaluate(ctx *TriggerContext) EvaluationResult {
	if !tr.IsEnabled {
		return noTrigger("rule is disabled")
	}

	if tr.RequiresUserConsent {
		if consent := ctx.UserPreferences[tr.ConsentSettingKey]; !consent {
			return noTrigger("user consent not given")
		}
	}

	if tr.TimeConstraint != nil && !tr.TimeConstraint.IsAllowed(ctx.Timestamp) {
		return noTrigger("outside allowed time window")
	}

	if tr.CooldownPeriod > 0 && ctx.LastTriggeredAt != nil {
		if time.Since(*ctx.LastTriggeredAt) < tr.CooldownPeriod {
			return noTrigger("cooldown period not elapsed")
		}
	}

	if tr.RateLimit != nil && tr.RateLimit.IsExceeded(ctx.TriggerCount) {
		return noTrigger("rate limit exceeded")
	}

	for _, cond := range tr.Conditions {
		value, ok := ctx.Values[cond.Type]
		if !ok || !cond.Evaluate(value) {
			return noTrigger("conditions not met")
		}
	}

	return EvaluationResult{ShouldTrigger: true}
}

// String возвращает представление для логов.
func (tr *TriggerRule) String() string {
	return fmt.Sprintf("TriggerRule{ID: %s, Type: %s, Enabled: %v, Conditions: %d}",
		tr.ID, tr.NotificationType, tr.IsEnabled, len(tr.Conditions))
}

// Ниже — стандартный набор правил, который собирает cmd/server.

// NewPetDiedRule — уведомление о смерти питомца.
func NewPetDiedRule(id TriggerRuleID) (*TriggerRule, error) {
	rule, err := NewTriggerRule(id, "Pet Died Notification", NotificationTypePetDied,
		"💀 {{.PetName}} умер. Воскреси его зельем или подожди 48 часов")
	if err != nil {
		return nil, err
	}

	cond, _ := NewCondition(ConditionTypePetDied, OpEqual, 1)
	rule.AddCondition(cond)
	return rule, nil
}

// NewPetHungryRule — напоминание о голодном питомце.
func NewPetHungryRule(id TriggerRuleID, hungerBelow int) (*TriggerRule, error) {
	rule, err := NewTriggerRule(id, "Pet Hungry Reminder", NotificationTypePetHungry,
		"🍚 {{.PetName}} проголодался! Сытость {{.Hunger}}/100")
	if err != nil {
		return nil, err
	}

	cond, _ := NewCondition(ConditionTypeHungerLevel, OpLessOrEqual, hungerBelow)
	rule.AddCondition(cond)
	rule.RequireConsent("pet_care_reminders")
	rule.SetCooldown(6 * time.Hour)
	return rule, nil
}

// NewRankUpRule — уведомление о заметном росте в рейтинге.
func NewRankUpRule(id TriggerRuleID, minPositions int) (*TriggerRule, error) {
	rule, err := NewTriggerRule(id, "Rank Up Notification", NotificationTypeRankUp,
		"🚀 {{.PetName}} поднялся на {{.RankChange}} мест! Теперь #{{.NewRank}}")
	if err != nil {
		return nil, err
	}

	cond, _ := NewCondition(ConditionTypeRankChange, OpGreaterOrEqual, minPositions)
	rule.AddCondition(cond)
	rule.RequireConsent("rank_changes")
	return rule, nil
}

// NewInactivityRule — напоминание после N дней неактивности.
func NewInactivityRule(id TriggerRuleID, days int) (*TriggerRule, error) {
	rule, err := NewTriggerRule(id, "Inactivity Reminder", NotificationTypeInactivityReminder,
		"👋 {{.PetName}} ждёт тебя уже {{.DaysInactive}} дней! Статы падают")
	if err != nil {
		return nil, err
	}

	cond, _ := NewCondition(ConditionTypeInactiveDays, OpGreaterOrEqual, days)
	rule.AddCondition(cond)
	rule.RequireConsent("inactivity_reminders")
	rule.SetCooldown(24 * time.Hour)
	return rule, nil
}

// NewDailyDigestRule — ежедневная сводка в заданный час.
func NewDailyDigestRule(id TriggerRuleID, hour int, timezone string) (*TriggerRule, error) {
	rule, err := NewTriggerRule(id, "Daily Digest", NotificationTypeDailyDigest,
		"📊 Твой день: +{{.ExpGained}} опыта, {{.NotesWritten}} заметок, #{{.NewRank}} в рейтинге")
	if err != nil {
		return nil, err
	}

	tc, _ := NewTimeConstraint(hour, (hour+1)%24, timezone)
	rule.SetTimeConstraint(tc)
	rule.RequireConsent("daily_digest")
	rule.SetCooldown(23 * time.Hour)
	return rule, nil
}

var (
	// ErrInvalidTriggerRuleID - невалидный ID правила.
	ErrInvalidTriggerRuleID = errors.New("invalid trigger rule id: cannot be empty")

	// ErrEmptyRuleName - пустое название правила.
	ErrEmptyRuleName = errors.New("rule name cannot be empty")

	// ErrEmptyMessageTemplate - пустой шаблон сообщения.
	ErrEmptyMessageTemplate = errors.New("message template cannot be empty")

	// ErrInvalidConditionType - невалидный тип условия.
	ErrInvalidConditionType = errors.New("invalid condition type")

	// ErrInvalidOperator - невалидный оператор сравнения.
	ErrInvalidOperator = errors.New("invalid comparison operator")

	// ErrInvalidRange - невалидный диапазон (min > max).
	ErrInvalidRange = errors.New("invalid range: min must be <= max")

	// ErrEmptyValueList - пустой список значений.
	ErrEmptyValueList = errors.New("value list cannot be empty")

	// ErrInvalidHours - невалидные часы (не 0-23).
	ErrInvalidHours = errors.New("invalid hours: must be 0-23")

	// ErrTriggerRuleNotFound - правило не найдено.
	ErrTriggerRuleNotFound = errors.New("trigger rule not found")
)
