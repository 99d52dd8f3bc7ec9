package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
)

// IDGeneratorImpl implements IDGenerator.
type IDGeneratorImpl struct{}

func NewIDGenerator() *IDGeneratorImpl {
	return &IDGeneratorImpl{}
}

func (g *IDGeneratorImpl) GenerateID() string {
	return uuid.New().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// defaultMaxRetries is applied to notifications created from rules.
const defaultMaxRetries = 3

// NotificationServiceImpl implements notification.NotificationService.
//
// Сервис хранит уведомления в репозитории и доставляет их через sender.
// Немедленные уведомления уходят сразу при ScheduleNotification,
// отложенные и неудачные добирает воркер через Process*/Retry* методы.
type NotificationServiceImpl struct {
	repo   notification.NotificationRepository
	sender notification.NotificationSender
	rules  []*notification.TriggerRule
	logger *slog.Logger
}

// NewNotificationService создаёт новый сервис уведомлений.
// rules — набор правил для EvaluateTriggers; может быть пустым.
func NewNotificationService(
	repo notification.NotificationRepository,
	sender notification.NotificationSender,
	rules []*notification.TriggerRule,
	logger *slog.Logger,
) *NotificationServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServiceImpl{
		repo:   repo,
		sender: sender,
		rules:  rules,
		logger: logger.With("component", "notification_service"),
	}
}

// CreateNotification builds a notification from a trigger rule and the
// event context that fired it. The rule's templates are rendered against
// the context data.
func (s *NotificationServiceImpl) CreateNotification(ctx context.Context, rule *notification.TriggerRule, triggerCtx *notification.TriggerContext) (*notification.Notification, error) {
	if rule == nil || triggerCtx == nil {
		return nil, notification.ErrInvalidMessage
	}

	priority := rule.Priority

	var expiresAt *time.Time
	if rule.ExpiresAfter > 0 {
		t := time.Now().UTC().Add(rule.ExpiresAfter)
		expiresAt = &t
	}

	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:          notification.NotificationID(uuid.NewString()),
		Type:        rule.NotificationType,
		RecipientID: notification.RecipientID(triggerCtx.UserID),
		PushToken:   triggerCtx.PushToken,
		Title:       renderTemplate(rule.TitleTemplate, triggerCtx.Data),
		Message:     renderTemplate(rule.MessageTemplate, triggerCtx.Data),
		Data:        triggerCtx.Data,
		Priority:    &priority,
		ExpiresAt:   expiresAt,
		MaxRetries:  defaultMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("create notification from rule %s: %w", rule.ID, err)
	}
	return n, nil
}

// ScheduleNotification persists the notification and, when it is due
// right away, delivers it inline. A delivery failure is not an error
// here: the notification stays stored and the retry worker picks it up.
func (s *NotificationServiceImpl) ScheduleNotification(ctx context.Context, n *notification.Notification) error {
	if n == nil {
		return notification.ErrInvalidMessage
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("schedule notification %s: %w", n.ID, err)
	}

	if n.IsReadyToSend() {
		if delivered := s.deliver(ctx, n); !delivered {
			s.logger.Warn("immediate delivery failed, left for retry",
				"notification_id", n.ID,
				"type", n.Type,
			)
		}
	}
	return nil
}

// CancelNotification cancels a stored notification. Cancelling one that
// already reached a final status keeps that status.
func (s *NotificationServiceImpl) CancelNotification(ctx context.Context, id notification.NotificationID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel notification %s: %w", id, err)
	}

	if err := n.MarkCancelled(); err != nil {
		if errors.Is(err, notification.ErrInvalidStatusTransition) {
			return nil
		}
		return err
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return fmt.Errorf("cancel notification %s: %w", id, err)
	}
	return nil
}

// ProcessPendingNotifications delivers due notifications from the queue.
// Возвращает число успешно доставленных.
func (s *NotificationServiceImpl) ProcessPendingNotifications(ctx context.Context, batchSize int) (int, error) {
	pending, err := s.repo.GetPending(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending notifications: %w", err)
	}

	processed := 0
	for _, n := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		if n.IsExpired() {
			s.expire(ctx, n)
			continue
		}
		if !n.IsReadyToSend() {
			continue
		}
		if s.deliver(ctx, n) {
			processed++
		}
	}
	return processed, nil
}

// ProcessExpiredNotifications marks overdue queued notifications as
// expired so they stop clogging the queue.
func (s *NotificationServiceImpl) ProcessExpiredNotifications(ctx context.Context) (int, error) {
	const batch = 200

	overdue, err := s.repo.GetExpired(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("fetch expired notifications: %w", err)
	}

	expired := 0
	for _, n := range overdue {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		if s.expire(ctx, n) {
			expired++
		}
	}
	return expired, nil
}

// RetryFailedNotifications re-queues failed notifications that still have
// attempts left and delivers them.
func (s *NotificationServiceImpl) RetryFailedNotifications(ctx context.Context, batchSize int) (int, error) {
	failed, err := s.repo.GetFailedForRetry(ctx, defaultMaxRetries, batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch failed notifications: %w", err)
	}

	retried := 0
	for _, n := range failed {
		if ctx.Err() != nil {
			return retried, ctx.Err()
		}

		if err := n.ResetForRetry(); err != nil {
			s.logger.Warn("notification exhausted retries",
				"notification_id", n.ID,
				"retry_count", n.RetryCount,
			)
			continue
		}
		if err := s.repo.Save(ctx, n); err != nil {
			return retried, fmt.Errorf("requeue notification %s: %w", n.ID, err)
		}
		if s.deliver(ctx, n) {
			retried++
		}
	}
	return retried, nil
}

// EvaluateTriggers returns the rules that fire for the given context.
func (s *NotificationServiceImpl) EvaluateTriggers(ctx context.Context, triggerCtx *notification.TriggerContext) ([]*notification.TriggerRule, error) {
	if triggerCtx == nil {
		return nil, nil
	}

	matched := make([]*notification.TriggerRule, 0)
	for _, rule := range s.rules {
		result := rule.Evaluate(triggerCtx)
		if result.ShouldTrigger {
			matched = append(matched, rule)
			continue
		}
		s.logger.Debug("trigger rule did not fire",
			"rule", rule.ID,
			"user_id", triggerCtx.UserID,
			"reason", result.Reason,
		)
	}
	return matched, nil
}

// deliver walks a notification through queued → sending → delivered or
// failed, persisting every transition. Returns true on delivery.
func (s *NotificationServiceImpl) deliver(ctx context.Context, n *notification.Notification) bool {
	if n.Status == notification.StatusPending {
		if err := n.MarkQueued(); err != nil {
			s.logger.Error("queue transition failed", "notification_id", n.ID, "error", err)
			return false
		}
	}
	if err := n.MarkSending(); err != nil {
		s.logger.Error("sending transition failed", "notification_id", n.ID, "error", err)
		return false
	}
	if err := s.repo.Save(ctx, n); err != nil {
		s.logger.Error("persist sending status failed", "notification_id", n.ID, "error", err)
		return false
	}

	result := s.sender.Send(ctx, n)
	if result.Success {
		if err := n.MarkDelivered(); err == nil {
			n.SetMetadata("channel", string(result.Channel))
			n.SetMetadata("message_id", result.MessageID)
		}
	} else {
		errText := "delivery failed"
		if result.Error != nil {
			errText = result.Error.Error()
		}
		if err := n.MarkFailed(errText); err != nil {
			s.logger.Error("failed transition failed", "notification_id", n.ID, "error", err)
		}
	}

	if err := s.repo.Save(ctx, n); err != nil {
		s.logger.Error("persist delivery status failed", "notification_id", n.ID, "error", err)
	}
	return result.Success
}

func (s *NotificationServiceImpl) expire(ctx context.Context, n *notification.Notification) bool {
	if err := n.MarkExpired(); err != nil {
		return false
	}
	if err := s.repo.Save(ctx, n); err != nil {
		s.logger.Error("persist expired status failed", "notification_id", n.ID, "error", err)
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// TEMPLATE RENDERING
// ══════════════════════════════════════════════════════════════════════════════

// renderTemplate substitutes {placeholder} tokens with values from the
// notification data. Unknown placeholders are left as-is.
func renderTemplate(template string, data notification.NotificationData) string {
	if template == "" || !strings.Contains(template, "{") {
		return template
	}

	replacer := strings.NewReplacer(
		"{pet_name}", data.PetName,
		"{stage_name}", data.StageName,
		"{stage_emoji}", data.StageEmoji,
		"{cause_of_death}", data.CauseOfDeath,
		"{old_rank}", strconv.Itoa(data.OldRank),
		"{new_rank}", strconv.Itoa(data.NewRank),
		"{top_number}", strconv.Itoa(data.TopNumber),
		"{competitor_name}", data.CompetitorName,
		"{exp_gained}", strconv.Itoa(data.ExpGained),
		"{total_exp}", strconv.Itoa(data.TotalExp),
		"{old_level}", strconv.Itoa(data.OldLevel),
		"{new_level}", strconv.Itoa(data.NewLevel),
		"{gems_credited}", strconv.Itoa(data.GemsCredited),
		"{classroom_name}", data.ClassroomName,
		"{join_code}", data.JoinCode,
		"{days_inactive}", strconv.Itoa(data.DaysInactive),
		"{notes_written}", strconv.Itoa(data.NotesWritten),
		"{exams_passed}", strconv.Itoa(data.ExamsPassed),
	)
	return replacer.Replace(template)
}
