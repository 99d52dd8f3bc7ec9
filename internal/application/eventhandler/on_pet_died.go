// Package eventhandler содержит обработчики доменных событий.
// Эти обработчики реализуют event-driven архитектуру и связывают
// различные части системы через асинхронные события.
//
// Философия: обработчики событий — это "реактивная" часть системы.
// Они реагируют на изменения и запускают побочные эффекты,
// такие как отправка уведомлений или обновление кешей.
package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/pet"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PET DIED HANDLER
// Смерть питомца - самое важное уведомление в игре: игрок должен
// узнать о ней сразу, даже с закрытой вкладкой.
// ═══════════════════════════════════════════════════════════════════════════

// OnPetDiedHandler обрабатывает событие смерти питомца.
type OnPetDiedHandler struct {
	notificationSvc notification.NotificationService
	petCache        pet.Cache
	logger          *slog.Logger
}

// NewOnPetDiedHandler создаёт новый обработчик.
func NewOnPetDiedHandler(
	notificationSvc notification.NotificationService,
	petCache pet.Cache,
	logger *slog.Logger,
) *OnPetDiedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnPetDiedHandler{
		notificationSvc: notificationSvc,
		petCache:        petCache,
		logger:          logger.With("handler", "on_pet_died"),
	}
}

// Handle обрабатывает событие смерти.
// Реализует интерфейс shared.EventHandler.
func (h *OnPetDiedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	diedEvent, ok := event.(shared.PetDiedEvent)
	if !ok {
		h.logger.Warn("received non-PetDiedEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("processing pet died event",
		"pet_id", diedEvent.AggregateID(),
		"user_id", diedEvent.UserID,
		"cause", diedEvent.Cause,
	)

	// Кеш питомца держит живые статы - после смерти они враньё.
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, diedEvent.AggregateID())
	}

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notification.NotificationTypePetDied,
		RecipientID: notification.RecipientID(diedEvent.UserID),
		Message:     h.buildMessage(diedEvent),
		Data: notification.NotificationData{
			PetID:        diedEvent.AggregateID(),
			PetName:      diedEvent.PetName,
			CauseOfDeath: diedEvent.Cause,
		},
	})
	if err != nil {
		return fmt.Errorf("on_pet_died: build notification: %w", err)
	}

	if err := h.notificationSvc.ScheduleNotification(ctx, n); err != nil {
		h.logger.Error("failed to schedule death notification",
			"pet_id", diedEvent.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("on_pet_died: schedule notification: %w", err)
	}

	return nil
}

// buildMessage собирает текст уведомления по причине смерти.
func (h *OnPetDiedHandler) buildMessage(e shared.PetDiedEvent) string {
	switch pet.CauseOfDeath(e.Cause) {
	case pet.CauseStarvation:
		return fmt.Sprintf("💀 %s이(가) 굶어서 쓰러졌어요... 부활 포션이 필요해요.", e.PetName)
	case pet.CauseBoredom:
		return fmt.Sprintf("💀 %s이(가) 너무 심심해서 떠났어요... 부활 포션이 필요해요.", e.PetName)
	case pet.CauseMalnutrition:
		return fmt.Sprintf("💀 %s이(가) 영양실조로 쓰러졌어요... 골고루 먹여주세요.", e.PetName)
	case pet.CauseStupidity:
		return fmt.Sprintf("💀 %s이(가) 공부를 너무 안 해서 떠났어요...", e.PetName)
	default:
		return fmt.Sprintf("💀 %s이(가) 유령이 되었어요... 부활 포션으로 되살려주세요.", e.PetName)
	}
}
