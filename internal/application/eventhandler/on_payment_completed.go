package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PAYMENT COMPLETED HANDLER
// Чек об оплате: подтверждение покупателю, что гемы зачислены.
// Сама оплата уже зафиксирована командой - здесь только побочные
// эффекты, и их сбой не должен откатывать платёж.
// ═══════════════════════════════════════════════════════════════════════════

// OnPaymentCompletedHandler обрабатывает событие успешной оплаты.
type OnPaymentCompletedHandler struct {
	notificationSvc notification.NotificationService
	logger          *slog.Logger
}

// NewOnPaymentCompletedHandler создаёт новый обработчик.
func NewOnPaymentCompletedHandler(
	notificationSvc notification.NotificationService,
	logger *slog.Logger,
) *OnPaymentCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnPaymentCompletedHandler{
		notificationSvc: notificationSvc,
		logger:          logger.With("handler", "on_payment_completed"),
	}
}

// Handle обрабатывает событие оплаты.
func (h *OnPaymentCompletedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	payEvent, ok := event.(shared.PaymentCompletedEvent)
	if !ok {
		h.logger.Warn("received non-PaymentCompletedEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("processing payment completed event",
		"order_id", payEvent.AggregateID(),
		"user_id", payEvent.UserID,
		"package_id", payEvent.PackageID,
		"gems", payEvent.GemsCredited,
	)

	message := fmt.Sprintf("💎 결제 완료! 젬 %d개가 충전되었어요. (₩%d)",
		payEvent.GemsCredited, payEvent.AmountKRW)

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.NotificationTypePaymentCompleted,
		RecipientID: notification.RecipientID(payEvent.UserID),
		Message:     message,
		Data: notification.NotificationData{
			OrderID:      payEvent.AggregateID(),
			GemsCredited: payEvent.GemsCredited,
			AmountKRW:    payEvent.AmountKRW,
		},
	})
	if err != nil {
		return fmt.Errorf("on_payment_completed: build notification: %w", err)
	}

	if err := h.notificationSvc.ScheduleNotification(ctx, n); err != nil {
		h.logger.Error("failed to schedule payment notification",
			"order_id", payEvent.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("on_payment_completed: schedule notification: %w", err)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnPaymentCompletedHandler) EventType() shared.EventType {
	return shared.EventPaymentCompleted
}
