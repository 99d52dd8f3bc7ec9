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
// ON LEVEL UP HANDLER
// Повышение уровня - приятное событие, но мы не спамим игрока
// каждым уровнем: уведомление заслуживает только смена стадии
// (вылупление, взросление) и круглые уровни.
// ═══════════════════════════════════════════════════════════════════════════

// OnLevelUpHandler обрабатывает событие повышения уровня питомца.
type OnLevelUpHandler struct {
	notificationSvc notification.NotificationService
	petCache        pet.Cache
	logger          *slog.Logger

	// NotifyEveryLevels - шаг "круглых" уровней, о которых стоит сообщить.
	notifyEveryLevels int
}

// NewOnLevelUpHandler создаёт новый обработчик.
func NewOnLevelUpHandler(
	notificationSvc notification.NotificationService,
	petCache pet.Cache,
	logger *slog.Logger,
) *OnLevelUpHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnLevelUpHandler{
		notificationSvc:   notificationSvc,
		petCache:          petCache,
		logger:            logger.With("handler", "on_level_up"),
		notifyEveryLevels: 5,
	}
}

// Handle обрабатывает событие повышения уровня.
func (h *OnLevelUpHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	levelEvent, ok := event.(shared.LevelUpEvent)
	if !ok {
		h.logger.Warn("received non-LevelUpEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("processing level up event",
		"pet_id", levelEvent.AggregateID(),
		"user_id", levelEvent.UserID,
		"new_level", levelEvent.NewLevel,
		"stage_changed", levelEvent.StageChanged,
	)

	// Уровень и стадия входят в кешированное представление питомца.
	if h.petCache != nil {
		_ = h.petCache.Invalidate(ctx, levelEvent.AggregateID())
	}

	if !h.worthNotifying(levelEvent) {
		return nil
	}

	notifType := notification.NotificationTypeLevelUp
	if levelEvent.StageChanged {
		notifType = notification.NotificationTypeStageUp
	}

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notifType,
		RecipientID: notification.RecipientID(levelEvent.UserID),
		Message:     h.buildMessage(levelEvent),
		Data: notification.NotificationData{
			PetID:    levelEvent.AggregateID(),
			PetName:  levelEvent.PetName,
			NewLevel: levelEvent.NewLevel,
		},
	})
	if err != nil {
		return fmt.Errorf("on_level_up: build notification: %w", err)
	}

	if err := h.notificationSvc.ScheduleNotification(ctx, n); err != nil {
		h.logger.Error("failed to schedule level up notification",
			"pet_id", levelEvent.AggregateID(),
			"error", err,
		)
		return fmt.Errorf("on_level_up: schedule notification: %w", err)
	}

	return nil
}

// worthNotifying решает, достоин ли уровень уведомления.
func (h *OnLevelUpHandler) worthNotifying(e shared.LevelUpEvent) bool {
	if e.StageChanged {
		return true
	}
	if h.notifyEveryLevels <= 0 {
		return true
	}
	return e.NewLevel%h.notifyEveryLevels == 0
}

// buildMessage собирает текст уведомления.
func (h *OnLevelUpHandler) buildMessage(e shared.LevelUpEvent) string {
	if e.StageChanged {
		stage := pet.StageFor(pet.Level(e.NewLevel))
		return fmt.Sprintf("%s %s이(가) %s(으)로 성장했어요! (레벨 %d)",
			stage.Emoji, e.PetName, stage.Name, e.NewLevel)
	}
	return fmt.Sprintf("✨ %s이(가) 레벨 %d이 되었어요!", e.PetName, e.NewLevel)
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnLevelUpHandler) EventType() shared.EventType {
	return shared.EventLevelUp
}
