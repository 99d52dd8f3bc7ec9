// Package notification содержит доменную модель уведомлений Studygotchi.
// Уведомления — главный канал обратной связи тамагочи со студентом: питомец
// напоминает о себе, когда голоден, умирает, растёт или меняет место в рейтинге.
// Философия: уведомления должны возвращать студента к учёбе, а не раздражать.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationID представляет уникальный идентификатор уведомления.
type NotificationID string

// IsValid проверяет, что ID не пустой.
func (id NotificationID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID.
func (id NotificationID) String() string {
	return string(id)
}

// RecipientID представляет идентификатор получателя уведомления (пользователя).
type RecipientID string

// IsValid проверяет, что ID получателя не пустой.
func (id RecipientID) IsValid() bool {
	return len(id) > 0
}

// String возвращает строковое представление ID получателя.
func (id RecipientID) String() string {
	return string(id)
}

// PushToken представляет web-push подписку получателя.
// Пустой токен допустим: in-app канал доставляет по RecipientID.
type PushToken string

// IsValid проверяет, что токен не пустой.
func (t PushToken) IsValid() bool {
	return len(t) > 0
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPE
// ══════════════════════════════════════════════════════════════════════════════

// NotificationType определяет тип уведомления.
type NotificationType string

const (
	// NotificationTypePetDied - питомец умер.
	// "💀 토토 умер от голода. Штраф 48 часов."
	NotificationTypePetDied NotificationType = "pet_died"

	// NotificationTypePetRevived - питомец воскрешён.
	// "💊 토토 снова жив! Покорми его."
	NotificationTypePetRevived NotificationType = "pet_revived"

	// NotificationTypePetHungry - питомец голоден, пора кормить.
	// "🍚 토토 проголодался! Сытость 25/100"
	NotificationTypePetHungry NotificationType = "pet_hungry"

	// NotificationTypePetBored - питомец заскучал.
	// "🎮 토토 скучает! Поиграй с ним в мини-игру"
	NotificationTypePetBored NotificationType = "pet_bored"

	// NotificationTypeLevelUp - питомец повысил уровень.
	// "⬆️ 토토 достиг уровня 5!"
	NotificationTypeLevelUp NotificationType = "level_up"

	// NotificationTypeStageUp - питомец перешёл на новую стадию роста.
	// "🐥 토토 вырос! Теперь он 어린이"
	NotificationTypeStageUp NotificationType = "stage_up"

	// NotificationTypeRankUp - питомец поднялся в рейтинге.
	// "🚀 토토 поднялся на 5 мест! Теперь #42"
	NotificationTypeRankUp NotificationType = "rank_up"

	// NotificationTypeRankDown - питомца обогнали.
	// "⚡ 코코 обогнал твоего питомца! Теперь #43"
	NotificationTypeRankDown NotificationType = "rank_down"

	// NotificationTypeEnteredTop - питомец вошёл в топ-3.
	// "🏆 토토 вошёл в тройку лучших!"
	NotificationTypeEnteredTop NotificationType = "entered_top"

	// NotificationTypeLeftTop - питомец выпал из топ-3.
	// "📉 토토 выпал из тройки. Ещё немного учёбы!"
	NotificationTypeLeftTop NotificationType = "left_top"

	// NotificationTypeExamGraded - экзамен проверен.
	// "✅ Ответ засчитан! +50 опыта, +10 интеллекта"
	NotificationTypeExamGraded NotificationType = "exam_graded"

	// NotificationTypeNewExam - учитель опубликовал новый экзамен.
	// "📝 Новый экзамен в классе «3반»"
	NotificationTypeNewExam NotificationType = "new_exam"

	// NotificationTypePaymentCompleted - покупка прошла успешно.
	// "💎 +500 гемов! Спасибо за покупку"
	NotificationTypePaymentCompleted NotificationType = "payment_completed"

	// NotificationTypeDailyDigest - ежедневная сводка по питомцу.
	// "📊 Твой день: +150 опыта, 3 заметки, #42 в рейтинге"
	NotificationTypeDailyDigest NotificationType = "daily_digest"

	// NotificationTypeInactivityReminder - напоминание о неактивности.
	// "👋 토토 ждёт тебя уже 3 дня! Статы падают"
	NotificationTypeInactivityReminder NotificationType = "inactivity_reminder"

	// NotificationTypeClassroomJoined - пользователь вступил в класс.
	// "🏫 Ты в классе «3반»! Код: A1B2C3"
	NotificationTypeClassroomJoined NotificationType = "classroom_joined"

	// NotificationTypeWelcome - приветственное сообщение для нового пользователя.
	// "👋 Добро пожаловать! Твой питомец 토토 уже вылупляется"
	NotificationTypeWelcome NotificationType = "welcome"

	// NotificationTypeSystemAlert - системное уведомление.
	// "⚙️ Плановые работы 25 декабря с 03:00 до 05:00"
	NotificationTypeSystemAlert NotificationType = "system_alert"
)

// IsValid проверяет, что тип уведомления корректен.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypePetDied,
		NotificationTypePetRevived,
		NotificationTypePetHungry,
		NotificationTypePetBored,
		NotificationTypeLevelUp,
		NotificationTypeStageUp,
		NotificationTypeRankUp,
		NotificationTypeRankDown,
		NotificationTypeEnteredTop,
		NotificationTypeLeftTop,
		NotificationTypeExamGraded,
		NotificationTypeNewExam,
		NotificationTypePaymentCompleted,
		NotificationTypeDailyDigest,
		NotificationTypeInactivityReminder,
		NotificationTypeClassroomJoined,
		NotificationTypeWelcome,
		NotificationTypeSystemAlert:
		return true
	default:
		return false
	}
}

// Category возвращает категорию уведомления для группировки.
func (t NotificationType) Category() NotificationCategory {
	switch t {
	case NotificationTypePetDied, NotificationTypePetRevived,
		NotificationTypePetHungry, NotificationTypePetBored:
		return CategoryPet

	case NotificationTypeRankUp, NotificationTypeRankDown,
		NotificationTypeEnteredTop, NotificationTypeLeftTop:
		return CategoryRanking

	case NotificationTypeLevelUp, NotificationTypeStageUp,
		NotificationTypeExamGraded:
		return CategoryProgress

	case NotificationTypeDailyDigest:
		return CategoryDigest

	case NotificationTypeInactivityReminder:
		return CategoryMotivation

	case NotificationTypePaymentCompleted:
		return CategoryCommerce

	case NotificationTypeNewExam, NotificationTypeClassroomJoined:
		return CategoryClassroom

	case NotificationTypeWelcome, NotificationTypeSystemAlert:
		return CategorySystem

	default:
		return CategorySystem
	}
}

// DefaultPriority возвращает приоритет по умолчанию для данного типа.
func (t NotificationType) DefaultPriority() Priority {
	switch t {
	case NotificationTypePetDied, NotificationTypeWelcome,
		NotificationTypeEnteredTop, NotificationTypeStageUp:
		return PriorityHigh

	case NotificationTypePetRevived, NotificationTypeLevelUp,
		NotificationTypeRankUp, NotificationTypeRankDown,
		NotificationTypeLeftTop, NotificationTypeExamGraded,
		NotificationTypePaymentCompleted, NotificationTypeNewExam,
		NotificationTypeClassroomJoined, NotificationTypeInactivityReminder:
		return PriorityNormal

	case NotificationTypePetHungry, NotificationTypePetBored,
		NotificationTypeDailyDigest:
		return PriorityLow

	case NotificationTypeSystemAlert:
		return PriorityUrgent

	default:
		return PriorityNormal
	}
}

// Emoji возвращает эмодзи для данного типа уведомления.
func (t NotificationType) Emoji() string {
	switch t {
	case NotificationTypePetDied:
		return "💀"
	case NotificationTypePetRevived:
		return "💊"
	case NotificationTypePetHungry:
		return "🍚"
	case NotificationTypePetBored:
		return "🎮"
	case NotificationTypeLevelUp:
		return "⬆️"
	case NotificationTypeStageUp:
		return "🐥"
	case NotificationTypeRankUp:
		return "🚀"
	case NotificationTypeRankDown:
		return "⚡"
	case NotificationTypeEnteredTop:
		return "🏆"
	case NotificationTypeLeftTop:
		return "📉"
	case NotificationTypeExamGraded:
		return "✅"
	case NotificationTypeNewExam:
		return "📝"
	case NotificationTypePaymentCompleted:
		return "💎"
	case NotificationTypeDailyDigest:
		return "📊"
	case NotificationTypeInactivityReminder:
		return "👋"
	case NotificationTypeClassroomJoined:
		return "🏫"
	case NotificationTypeWelcome:
		return "👋"
	case NotificationTypeSystemAlert:
		return "⚙️"
	default:
		return "📬"
	}
}

// String возвращает строковое представление типа.
func (t NotificationType) String() string {
	return string(t)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION CATEGORY
// ══════════════════════════════════════════════════════════════════════════════

// NotificationCategory определяет категорию уведомления для группировки и фильтрации.
type NotificationCategory string

const (
	// CategoryPet - жизненные события питомца (смерть, голод, воскрешение).
	CategoryPet NotificationCategory = "pet"

	// CategoryRanking - уведомления о рейтинге.
	CategoryRanking NotificationCategory = "ranking"

	// CategoryProgress - уведомления о прогрессе (уровни, стадии, экзамены).
	CategoryProgress NotificationCategory = "progress"

	// CategoryDigest - дайджесты и сводки.
	CategoryDigest NotificationCategory = "digest"

	// CategoryMotivation - мотивационные уведомления.
	CategoryMotivation NotificationCategory = "motivation"

	// CategoryCommerce - уведомления о покупках.
	CategoryCommerce NotificationCategory = "commerce"

	// CategoryClassroom - уведомления класса.
	CategoryClassroom NotificationCategory = "classroom"

	// CategorySystem - системные уведомления.
	CategorySystem NotificationCategory = "system"
)

// IsValid проверяет корректность категории.
func (c NotificationCategory) IsValid() bool {
	switch c {
	case CategoryPet, CategoryRanking, CategoryProgress, CategoryDigest,
		CategoryMotivation, CategoryCommerce, CategoryClassroom, CategorySystem:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет приоритет уведомления.
type Priority int

const (
	// PriorityLow - низкий приоритет (можно отложить, объединить с другими).
	PriorityLow Priority = 1

	// PriorityNormal - обычный приоритет.
	PriorityNormal Priority = 2

	// PriorityHigh - высокий приоритет (важное уведомление).
	PriorityHigh Priority = 3

	// PriorityUrgent - срочное уведомление (отправляется немедленно).
	PriorityUrgent Priority = 4
)

// IsValid проверяет корректность приоритета.
func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

// String возвращает строковое представление приоритета.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// ShouldSendImmediately возвращает true, если уведомление нужно отправить сразу.
func (p Priority) ShouldSendImmediately() bool {
	return p >= PriorityHigh
}

// CanBeBatched возвращает true, если уведомление можно объединить с другими.
func (p Priority) CanBeBatched() bool {
	return p == PriorityLow
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STATUS
// ══════════════════════════════════════════════════════════════════════════════

// NotificationStatus определяет статус доставки уведомления.
type NotificationStatus string

const (
	// StatusPending - уведомление ожидает отправки.
	StatusPending NotificationStatus = "pending"

	// StatusQueued - уведомление в очереди на отправку.
	StatusQueued NotificationStatus = "queued"

	// StatusSending - уведомление отправляется.
	StatusSending NotificationStatus = "sending"

	// StatusDelivered - уведомление доставлено.
	StatusDelivered NotificationStatus = "delivered"

	// StatusFailed - доставка не удалась.
	StatusFailed NotificationStatus = "failed"

	// StatusCancelled - уведомление отменено.
	StatusCancelled NotificationStatus = "cancelled"

	// StatusExpired - уведомление устарело и не было отправлено.
	StatusExpired NotificationStatus = "expired"

	// StatusSkipped - уведомление пропущено (например, тихие часы).
	StatusSkipped NotificationStatus = "skipped"
)

// IsValid проверяет корректность статуса.
func (s NotificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusSending,
		StatusDelivered, StatusFailed, StatusCancelled,
		StatusExpired, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsFinal возвращает true, если это конечный статус.
func (s NotificationStatus) IsFinal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusCancelled, StatusExpired, StatusSkipped:
		return true
	default:
		return false
	}
}

// IsSuccess возвращает true, если уведомление успешно доставлено.
func (s NotificationStatus) IsSuccess() bool {
	return s == StatusDelivered
}

// CanRetry возвращает true, если можно повторить отправку.
func (s NotificationStatus) CanRetry() bool {
	return s == StatusFailed
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification представляет уведомление, отправляемое студенту.
type Notification struct {
	// ID - уникальный идентификатор уведомления.
	ID NotificationID

	// Type - тип уведомления.
	Type NotificationType

	// RecipientID - ID получателя (пользователя).
	RecipientID RecipientID

	// PushToken - web-push подписка получателя (пусто для in-app).
	PushToken PushToken

	// Priority - приоритет уведомления.
	Priority Priority

	// Status - текущий статус доставки.
	Status NotificationStatus

	// Title - заголовок уведомления (опционально).
	Title string

	// Message - текст уведомления.
	Message string

	// Data - дополнительные данные для форматирования.
	Data NotificationData

	// ScheduledAt - запланированное время отправки (nil = сразу).
	ScheduledAt *time.Time

	// SentAt - фактическое время отправки.
	SentAt *time.Time

	// DeliveredAt - время доставки.
	DeliveredAt *time.Time

	// ExpiresAt - время истечения (после которого не отправлять).
	ExpiresAt *time.Time

	// RetryCount - количество попыток отправки.
	RetryCount int

	// MaxRetries - максимальное количество попыток.
	MaxRetries int

	// LastError - последняя ошибка доставки.
	LastError string

	// Metadata - произвольные метаданные.
	Metadata map[string]string

	// CreatedAt - время создания.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NotificationData содержит типизированные данные для разных типов уведомлений.
type NotificationData struct {
	// Pet-related
	PetID        string `json:"pet_id,omitempty"`
	PetName      string `json:"pet_name,omitempty"`
	Sprite       string `json:"sprite,omitempty"`
	CauseOfDeath string `json:"cause_of_death,omitempty"`
	Hunger       int    `json:"hunger,omitempty"`
	Boredom      int    `json:"boredom,omitempty"`

	// Rank-related
	OldRank        int    `json:"old_rank,omitempty"`
	NewRank        int    `json:"new_rank,omitempty"`
	RankChange     int    `json:"rank_change,omitempty"`
	TopNumber      int    `json:"top_number,omitempty"` // 3, 10
	CompetitorName string `json:"competitor_name,omitempty"`
	CompetitorID   string `json:"competitor_id,omitempty"`

	// Experience-related
	ExpGained int `json:"exp_gained,omitempty"`
	TotalExp  int `json:"total_exp,omitempty"`
	ExpToNext int `json:"exp_to_next,omitempty"`

	// Level / stage related
	OldLevel   int    `json:"old_level,omitempty"`
	NewLevel   int    `json:"new_level,omitempty"`
	StageName  string `json:"stage_name,omitempty"`
	StageEmoji string `json:"stage_emoji,omitempty"`

	// Exam-related
	ExamID      int64  `json:"exam_id,omitempty"`
	IsCorrect   bool   `json:"is_correct,omitempty"`
	Explanation string `json:"explanation,omitempty"`

	// Payment-related
	OrderID      string `json:"order_id,omitempty"`
	GemsCredited int    `json:"gems_credited,omitempty"`
	AmountKRW    int64  `json:"amount_krw,omitempty"`

	// Classroom-related
	ClassroomID   string `json:"classroom_id,omitempty"`
	ClassroomName string `json:"classroom_name,omitempty"`
	JoinCode      string `json:"join_code,omitempty"`

	// Digest-related
	NotesWritten int        `json:"notes_written,omitempty"`
	ExamsPassed  int        `json:"exams_passed,omitempty"`
	PeriodStart  *time.Time `json:"period_start,omitempty"`
	PeriodEnd    *time.Time `json:"period_end,omitempty"`

	// Inactivity-related
	DaysInactive int `json:"days_inactive,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewNotificationParams содержит параметры для создания уведомления.
type NewNotificationParams struct {
	ID          NotificationID
	Type        NotificationType
	RecipientID RecipientID
	PushToken   PushToken
	Message     string
	Title       string
	Data        NotificationData
	Priority    *Priority
	ScheduledAt *time.Time
	ExpiresAt   *time.Time
	MaxRetries  int
}

// NewNotification создаёт новое уведомление с валидацией.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if !params.ID.IsValid() {
		return nil, ErrInvalidNotificationID
	}

	if !params.Type.IsValid() {
		return nil, ErrInvalidNotificationType
	}

	if !params.RecipientID.IsValid() {
		return nil, ErrInvalidRecipientID
	}

	if params.Message == "" {
		return nil, ErrEmptyMessage
	}

	priority := params.Type.DefaultPriority()
	if params.Priority != nil && params.Priority.IsValid() {
		priority = *params.Priority
	}

	maxRetries := 3
	if params.MaxRetries > 0 {
		maxRetries = params.MaxRetries
	}

	now := time.Now().UTC()

	return &Notification{
		ID:          params.ID,
		Type:        params.Type,
		RecipientID: params.RecipientID,
		PushToken:   params.PushToken,
		Priority:    priority,
		Status:      StatusPending,
		Title:       params.Title,
		Message:     params.Message,
		Data:        params.Data,
		ScheduledAt: params.ScheduledAt,
		ExpiresAt:   params.ExpiresAt,
		RetryCount:  0,
		MaxRetries:  maxRetries,
		Metadata:    make(map[string]string),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// Category возвращает категорию уведомления.
func (n *Notification) Category() NotificationCategory {
	return n.Type.Category()
}

// MarkQueued переводит уведомление в статус "в очереди".
func (n *Notification) MarkQueued() error {
	if n.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusQueued
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSending переводит уведомление в статус "отправляется".
func (n *Notification) MarkSending() error {
	if n.Status != StatusQueued && n.Status != StatusPending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusSending
	now := time.Now().UTC()
	n.SentAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkDelivered помечает уведомление как доставленное.
func (n *Notification) MarkDelivered() error {
	if n.Status != StatusSending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusDelivered
	now := time.Now().UTC()
	n.DeliveredAt = &now
	n.UpdatedAt = now
	return nil
}

// MarkFailed помечает уведомление как неудачное.
func (n *Notification) MarkFailed(err string) error {
	if n.Status != StatusSending {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusFailed
	n.LastError = err
	n.RetryCount++
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCancelled отменяет уведомление.
func (n *Notification) MarkCancelled() error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusCancelled
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkExpired помечает уведомление как устаревшее.
func (n *Notification) MarkExpired() error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusExpired
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkSkipped помечает уведомление как пропущенное.
func (n *Notification) MarkSkipped(reason string) error {
	if n.Status.IsFinal() {
		return ErrInvalidStatusTransition
	}
	n.Status = StatusSkipped
	n.LastError = reason
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// ResetForRetry подготавливает уведомление для повторной отправки.
func (n *Notification) ResetForRetry() error {
	if !n.CanRetry() {
		return ErrMaxRetriesExceeded
	}
	n.Status = StatusPending
	n.SentAt = nil
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// CanRetry возвращает true, если можно повторить отправку.
func (n *Notification) CanRetry() bool {
	return n.Status.CanRetry() && n.RetryCount < n.MaxRetries
}

// IsExpired проверяет, истекло ли время жизни уведомления.
func (n *Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().UTC().After(*n.ExpiresAt)
}

// IsScheduled возвращает true, если уведомление запланировано на будущее.
func (n *Notification) IsScheduled() bool {
	if n.ScheduledAt == nil {
		return false
	}
	return n.ScheduledAt.After(time.Now().UTC())
}

// IsReadyToSend возвращает true, если уведомление готово к отправке.
func (n *Notification) IsReadyToSend() bool {
	if n.Status != StatusPending && n.Status != StatusQueued {
		return false
	}
	if n.IsExpired() {
		return false
	}
	if n.IsScheduled() {
		return false
	}
	return true
}

// SetMetadata устанавливает значение метаданных.
func (n *Notification) SetMetadata(key, value string) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]string)
	}
	n.Metadata[key] = value
	n.UpdatedAt = time.Now().UTC()
}

// GetMetadata возвращает значение метаданных.
func (n *Notification) GetMetadata(key string) (string, bool) {
	if n.Metadata == nil {
		return "", false
	}
	value, ok := n.Metadata[key]
	return value, ok
}

// Clone создаёт глубокую копию уведомления.
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}

	clone := *n

	// Копируем указатели
	if n.ScheduledAt != nil {
		t := *n.ScheduledAt
		clone.ScheduledAt = &t
	}
	if n.SentAt != nil {
		t := *n.SentAt
		clone.SentAt = &t
	}
	if n.DeliveredAt != nil {
		t := *n.DeliveredAt
		clone.DeliveredAt = &t
	}
	if n.ExpiresAt != nil {
		t := *n.ExpiresAt
		clone.ExpiresAt = &t
	}

	// Копируем map
	if n.Metadata != nil {
		clone.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}

// String возвращает строковое представление для логирования.
func (n *Notification) String() string {
	return fmt.Sprintf(
		"Notification{ID: %s, Type: %s, Recipient: %s, Status: %s, Priority: %s}",
		n.ID, n.Type, n.RecipientID, n.Status, n.Priority,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION BATCH (for grouping low-priority notifications)
// ══════════════════════════════════════════════════════════════════════════════

// NotificationBatch представляет группу уведомлений для одного получателя.
type NotificationBatch struct {
	// RecipientID - получатель батча.
	RecipientID RecipientID

	// Notifications - список уведомлений в батче.
	Notifications []*Notification

	// CreatedAt - время создания батча.
	CreatedAt time.Time
}

// NewNotificationBatch создаёт новый батч уведомлений.
func NewNotificationBatch(recipientID RecipientID) *NotificationBatch {
	return &NotificationBatch{
		RecipientID:   recipientID,
		Notifications: make([]*Notification, 0),
		CreatedAt:     time.Now().UTC(),
	}
}

// Add добавляет уведомление в батч.
func (b *NotificationBatch) Add(n *Notification) error {
	if n == nil {
		return ErrNilNotification
	}
	if n.RecipientID != b.RecipientID {
		return ErrRecipientMismatch
	}
	b.Notifications = append(b.Notifications, n)
	return nil
}

// Count возвращает количество уведомлений в батче.
func (b *NotificationBatch) Count() int {
	return len(b.Notifications)
}

// IsEmpty возвращает true, если батч пуст.
func (b *NotificationBatch) IsEmpty() bool {
	return len(b.Notifications) == 0
}

// HighestPriority возвращает наивысший приоритет в батче.
func (b *NotificationBatch) HighestPriority() Priority {
	if b.IsEmpty() {
		return PriorityLow
	}

	highest := PriorityLow
	for _, n := range b.Notifications {
		if n.Priority > highest {
			highest = n.Priority
		}
	}
	return highest
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidNotificationID - невалидный ID уведомления.
	ErrInvalidNotificationID = errors.New("invalid notification id: cannot be empty")

	// ErrInvalidNotificationType - невалидный тип уведомления.
	ErrInvalidNotificationType = errors.New("invalid notification type")

	// ErrInvalidRecipientID - невалидный ID получателя.
	ErrInvalidRecipientID = errors.New("invalid recipient id: cannot be empty")

	// ErrEmptyMessage - пустое сообщение.
	ErrEmptyMessage = errors.New("notification message cannot be empty")

	// ErrInvalidPriority - невалидный приоритет.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidStatusTransition - недопустимый переход статуса.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrMaxRetriesExceeded - превышено количество попыток.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrNotificationExpired - уведомление устарело.
	ErrNotificationExpired = errors.New("notification has expired")

	// ErrNilNotification - nil уведомление.
	ErrNilNotification = errors.New("notification cannot be nil")

	// ErrRecipientMismatch - несоответствие получателя.
	ErrRecipientMismatch = errors.New("notification recipient does not match batch")

	// ErrNotificationNotFound - уведомление не найдено.
	ErrNotificationNotFound = errors.New("notification not found")
)
