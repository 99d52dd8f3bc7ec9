package notification

import (
	"context"
	"errors"
	"time"
)

// ChannelType определяет канал доставки уведомлений.
type ChannelType string

const (
	// ChannelTypeInApp - лента уведомлений внутри приложения (основной канал).
	ChannelTypeInApp ChannelType = "in_app"

	// ChannelTypeWebPush - браузерные push-уведомления.
	ChannelTypeWebPush ChannelType = "web_push"
)

// IsValid сообщает, известен ли тип канала.
func (ct ChannelType) IsValid() bool {
	return ct == ChannelTypeInApp || ct == ChannelTypeWebPush
}

// String реализует fmt.Stringer.
func (ct ChannelType) String() string { return string(ct) }

// DeliveryResult — итог одной попытки доставки.
type DeliveryResult struct {
	Success   bool
	MessageID string
	Channel   ChannelType

	DeliveredAt time.Time

	// Error и Retryable заполняются при неудаче. Retryable=true оставляет
	// уведомление воркеру повторной отправки.
	Error     error
	Retryable bool
}

// NewSuccessResult фиксирует успешную доставку.
func NewSuccessResult(channel ChannelType, messageID string) DeliveryResult {
	return DeliveryResult{
		Success:     true,
		MessageID:   messageID,
		Channel:     channel,
		DeliveredAt: time.Now().UTC(),
	}
}

// NewFailureResult фиксирует ошибку доставки.
func NewFailureResult(channel ChannelType, err error, retryable bool) DeliveryResult {
	return DeliveryResult{
		Channel:     channel,
		DeliveredAt: time.Now().UTC(),
		Error:       err,
		Retryable:   retryable,
	}
}

// DeliveryOptions содержит опции отправки.
type DeliveryOptions struct {
	// Timeout ограничивает время одной попытки доставки.
	Timeout time.Duration
}

// DefaultDeliveryOptions даёт стандартные опции доставки.
func DefaultDeliveryOptions() DeliveryOptions {
	return DeliveryOptions{Timeout: 30 * time.Second}
}

// NotificationChannel — конкретная система доставки (in-app лента,
// web push и т.д.).
type NotificationChannel interface {
	// Type сообщает тип канала.
	Type() ChannelType

	// Send доставляет одно уведомление.
	Send(ctx context.Context, notification *Notification, opts DeliveryOptions) DeliveryResult

	// SendBatch доставляет пачку уведомлений одному получателю.
	// Низкоприоритетные уведомления склеиваются в одну отправку.
	SendBatch(ctx context.Context, batch *NotificationBatch, opts DeliveryOptions) DeliveryResult

	// IsAvailable сообщает, готов ли канал к отправке.
	IsAvailable(ctx context.Context) bool

	// SupportsRecipient сообщает, сможет ли канал доставить этому
	// получателю. Например, web push требует PushToken.
	SupportsRecipient(notification *Notification) bool
}

// NotificationSender выбирает подходящий канал и доставляет через него.
type NotificationSender interface {
	// Send доставляет уведомление через первый подходящий канал.
	Send(ctx context.Context, notification *Notification) DeliveryResult

	// SendBatch доставляет пачку целиком.
	SendBatch(ctx context.Context, batch *NotificationBatch) DeliveryResult
}

// NotificationRepository — хранилище уведомлений.
type NotificationRepository interface {
	// Save записывает уведомление.
	Save(ctx context.Context, notification *Notification) error

	// GetByID ищет уведомление по идентификатору.
	GetByID(ctx context.Context, id NotificationID) (*Notification, error)

	// GetPending выбирает уведомления из очереди на отправку.
	GetPending(ctx context.Context, limit int) ([]*Notification, error)

	// GetByRecipient выбирает последние уведомления получателя.
	GetByRecipient(ctx context.Context, recipientID RecipientID, limit int) ([]*Notification, error)

	// GetFailedForRetry выбирает неудачные уведомления с запасом попыток.
	GetFailedForRetry(ctx context.Context, maxRetries int, limit int) ([]*Notification, error)

	// GetExpired выбирает уведомления с истёкшим сроком.
	GetExpired(ctx context.Context, limit int) ([]*Notification, error)

	// Delete удаляет уведомление по идентификатору.
	Delete(ctx context.Context, id NotificationID) error

	// DeleteOlderThan чистит уведомления старше даты.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)

	// CountByRecipient считает уведомления получателя с указанного момента.
	CountByRecipient(ctx context.Context, recipientID RecipientID, since time.Time) (int, error)
}

// NotificationService — доменный сервис уведомлений: создание по
// правилам, планирование и обработка очереди.
type NotificationService interface {
	// CreateNotification строит уведомление из правила и контекста срабатывания.
	CreateNotification(ctx context.Context, rule *TriggerRule, triggerCtx *TriggerContext) (*Notification, error)

	// ScheduleNotification ставит уведомление в очередь на отправку.
	ScheduleNotification(ctx context.Context, notification *Notification) error

	// CancelNotification снимает уведомление с отправки.
	CancelNotification(ctx context.Context, id NotificationID) error

	// ProcessPendingNotifications разбирает очередь пачками.
	ProcessPendingNotifications(ctx context.Context, batchSize int) (processed int, err error)

	// ProcessExpiredNotifications помечает просроченные уведомления.
	ProcessExpiredNotifications(ctx context.Context) (expired int, err error)

	// RetryFailedNotifications повторяет доставку неудачных уведомлений.
	RetryFailedNotifications(ctx context.Context, batchSize int) (retried int, err error)

	// EvaluateTriggers подбирает правила, сработавшие на контекст.
	EvaluateTriggers(ctx context.Context, triggerCtx *TriggerContext) ([]*TriggerRule, error)
}

var (
	// ErrChannelNotFound - для получателя не нашлось ни одного канала.
	ErrChannelNotFound = errors.New("notification channel not found")

	// ErrInvalidMessage - пустое или некорректное сообщение.
	ErrInvalidMessage = errors.New("invalid notification message")
)
