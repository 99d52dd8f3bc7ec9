package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/leaderboard"
	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RANK CHANGED HANDLER
// Обрабатывает изменение позиции питомца в рейтинге.
//
// Рейтинг должен подстёгивать, а не дёргать: мелкие колебания
// на 1-2 места игрока не интересуют, а вот вход в топ-3 или
// топ-10 - настоящее достижение.
// ═══════════════════════════════════════════════════════════════════════════

// OnRankChangedHandler обрабатывает событие изменения ранга.
type OnRankChangedHandler struct {
	notificationSvc notification.NotificationService
	logger          *slog.Logger
	config          RankChangedConfig
}

// RankChangedConfig содержит конфигурацию обработчика.
type RankChangedConfig struct {
	// MinRankChangeForNotification - минимальный сдвиг ранга для уведомления.
	// Не беспокоим игрока при изменении на 1-2 позиции.
	MinRankChangeForNotification int

	// TopNMilestones - пороги для уведомлений о входе в топ.
	TopNMilestones []int

	// NotifyGlobalOnly - слать уведомления только по глобальному рейтингу.
	// Внутри класса ранги скачут постоянно и быстро надоедают.
	NotifyGlobalOnly bool
}

// DefaultRankChangedConfig возвращает конфигурацию по умолчанию.
func DefaultRankChangedConfig() RankChangedConfig {
	return RankChangedConfig{
		MinRankChangeForNotification: 3,
		TopNMilestones:               []int{3, 10},
		NotifyGlobalOnly:             true,
	}
}

// NewOnRankChangedHandler создаёт новый обработчик.
func NewOnRankChangedHandler(
	notificationSvc notification.NotificationService,
	logger *slog.Logger,
	config RankChangedConfig,
) *OnRankChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRankChangedHandler{
		notificationSvc: notificationSvc,
		logger:          logger.With("handler", "on_rank_changed"),
		config:          config,
	}
}

// Handle обрабатывает событие изменения ранга.
func (h *OnRankChangedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	rankEvent, ok := event.(shared.RankChangedEvent)
	if !ok {
		h.logger.Warn("received non-RankChangedEvent", "event_type", event.EventType())
		return nil
	}

	h.logger.Info("processing rank changed event",
		"pet_id", rankEvent.AggregateID(),
		"user_id", rankEvent.UserID,
		"old_rank", rankEvent.OldRank,
		"new_rank", rankEvent.NewRank,
		"scope", rankEvent.Scope,
	)

	if h.config.NotifyGlobalOnly && !leaderboard.Scope(rankEvent.Scope).IsGlobal() {
		return nil
	}

	// Вход в топ перекрывает обычное уведомление о сдвиге.
	if milestone := h.crossedMilestone(rankEvent); milestone > 0 {
		return h.schedule(ctx, rankEvent,
			notification.NotificationTypeEnteredTop,
			fmt.Sprintf("🏆 %s이(가) 톱 %d에 들어갔어요! 현재 %d위!",
				rankEvent.PetName, milestone, rankEvent.NewRank),
			milestone,
		)
	}

	if !h.bigEnough(rankEvent) {
		return nil
	}

	if rankEvent.Improved() {
		return h.schedule(ctx, rankEvent,
			notification.NotificationTypeRankUp,
			fmt.Sprintf("🚀 %s이(가) %d계단 올라 %d위가 되었어요!",
				rankEvent.PetName, rankEvent.OldRank-rankEvent.NewRank, rankEvent.NewRank),
			0,
		)
	}

	// Понижение подаём мягко: напоминание, а не упрёк.
	return h.schedule(ctx, rankEvent,
		notification.NotificationTypeRankDown,
		fmt.Sprintf("📉 %s이(가) %d위로 내려갔어요. 같이 공부할 시간이에요!",
			rankEvent.PetName, rankEvent.NewRank),
		0,
	)
}

// bigEnough проверяет, достаточно ли велик сдвиг ранга.
func (h *OnRankChangedHandler) bigEnough(e shared.RankChangedEvent) bool {
	change := e.NewRank - e.OldRank
	if change < 0 {
		change = -change
	}
	return change >= h.config.MinRankChangeForNotification
}

// crossedMilestone возвращает самый престижный порог топ-N,
// который питомец пересёк снизу вверх. 0 - порог не пересечён.
func (h *OnRankChangedHandler) crossedMilestone(e shared.RankChangedEvent) int {
	if e.NewRank <= 0 {
		return 0
	}
	best := 0
	for _, milestone := range h.config.TopNMilestones {
		entered := e.NewRank <= milestone && (e.OldRank == 0 || e.OldRank > milestone)
		if entered && (best == 0 || milestone < best) {
			best = milestone
		}
	}
	return best
}

func (h *OnRankChangedHandler) schedule(
	ctx context.Context,
	e shared.RankChangedEvent,
	notifType notification.NotificationType,
	message string,
	topNumber int,
) error {
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        notifType,
		RecipientID: notification.RecipientID(e.UserID),
		Message:     message,
		Data: notification.NotificationData{
			PetID:      e.AggregateID(),
			PetName:    e.PetName,
			OldRank:    e.OldRank,
			NewRank:    e.NewRank,
			RankChange: e.OldRank - e.NewRank,
			TopNumber:  topNumber,
		},
	})
	if err != nil {
		return fmt.Errorf("on_rank_changed: build notification: %w", err)
	}

	if err := h.notificationSvc.ScheduleNotification(ctx, n); err != nil {
		h.logger.Error("failed to schedule rank notification",
			"pet_id", e.AggregateID(),
			"type", notifType,
			"error", err,
		)
		return fmt.Errorf("on_rank_changed: schedule notification: %w", err)
	}

	return nil
}

// EventType возвращает тип события, который обрабатывает этот handler.
func (h *OnRankChangedHandler) EventType() shared.EventType {
	return shared.EventRankChanged
}
