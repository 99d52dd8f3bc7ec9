package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotification(t *testing.T) *Notification {
	t.Helper()

	n, err := NewNotification(NewNotificationParams{
		ID:          "notif-1",
		Type:        NotificationTypePetDied,
		RecipientID: "user-1",
		Message:     "💀 토토 умер. Воскреси его зельем или подожди 48 часов",
		Data: NotificationData{
			PetID:        "pet-1",
			PetName:      "토토",
			CauseOfDeath: "starvation",
		},
	})
	require.NoError(t, err)
	return n
}

func TestNewNotification(t *testing.T) {
	n := newTestNotification(t)

	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, PriorityHigh, n.Priority, "смерть питомца — высокий приоритет по умолчанию")
	assert.Equal(t, 3, n.MaxRetries)
	assert.Equal(t, CategoryPet, n.Category())
	assert.True(t, n.IsReadyToSend())
}

func TestNewNotificationValidation(t *testing.T) {
	_, err := NewNotification(NewNotificationParams{
		Type:        NotificationTypeWelcome,
		RecipientID: "user-1",
		Message:     "привет",
	})
	assert.ErrorIs(t, err, ErrInvalidNotificationID)

	_, err = NewNotification(NewNotificationParams{
		ID:          "notif-1",
		Type:        "spam",
		RecipientID: "user-1",
		Message:     "привет",
	})
	assert.ErrorIs(t, err, ErrInvalidNotificationType)

	_, err = NewNotification(NewNotificationParams{
		ID:          "notif-1",
		Type:        NotificationTypeWelcome,
		RecipientID: "user-1",
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNotificationLifecycle(t *testing.T) {
	n := newTestNotification(t)

	require.NoError(t, n.MarkQueued())
	require.NoError(t, n.MarkSending())
	assert.NotNil(t, n.SentAt)

	require.NoError(t, n.MarkDelivered())
	assert.Equal(t, StatusDelivered, n.Status)
	assert.NotNil(t, n.DeliveredAt)

	// Конечный статус: переходы запрещены
	assert.ErrorIs(t, n.MarkCancelled(), ErrInvalidStatusTransition)
}

func TestNotificationRetry(t *testing.T) {
	n := newTestNotification(t)
	n.MaxRetries = 2

	for i := 0; i < 2; i++ {
		require.NoError(t, n.MarkSending())
		require.NoError(t, n.MarkFailed("push endpoint unreachable"))
		if i == 0 {
			require.NoError(t, n.ResetForRetry())
		}
	}

	assert.Equal(t, 2, n.RetryCount)
	assert.False(t, n.CanRetry())
	assert.ErrorIs(t, n.ResetForRetry(), ErrMaxRetriesExceeded)
}

func TestNotificationExpiry(t *testing.T) {
	n := newTestNotification(t)

	past := time.Now().UTC().Add(-time.Minute)
	n.ExpiresAt = &past

	assert.True(t, n.IsExpired())
	assert.False(t, n.IsReadyToSend())
}

func TestNotificationTypePriorities(t *testing.T) {
	assert.Equal(t, PriorityHigh, NotificationTypePetDied.DefaultPriority())
	assert.Equal(t, PriorityUrgent, NotificationTypeSystemAlert.DefaultPriority())
	assert.Equal(t, PriorityLow, NotificationTypeDailyDigest.DefaultPriority())
	assert.Equal(t, PriorityNormal, NotificationTypePaymentCompleted.DefaultPriority())
}

func TestNotificationTypeCategories(t *testing.T) {
	assert.Equal(t, CategoryPet, NotificationTypePetHungry.Category())
	assert.Equal(t, CategoryRanking, NotificationTypeEnteredTop.Category())
	assert.Equal(t, CategoryProgress, NotificationTypeStageUp.Category())
	assert.Equal(t, CategoryCommerce, NotificationTypePaymentCompleted.Category())
	assert.Equal(t, CategoryClassroom, NotificationTypeNewExam.Category())
}

func TestNotificationBatch(t *testing.T) {
	batch := NewNotificationBatch("user-1")
	assert.True(t, batch.IsEmpty())

	n := newTestNotification(t)
	require.NoError(t, batch.Add(n))
	assert.Equal(t, 1, batch.Count())
	assert.Equal(t, PriorityHigh, batch.HighestPriority())

	stranger := newTestNotification(t)
	stranger.RecipientID = "user-2"
	assert.ErrorIs(t, batch.Add(stranger), ErrRecipientMismatch)
}

func TestTriggerRuleEvaluate(t *testing.T) {
	rule, err := NewPetHungryRule("rule-hungry", 25)
	require.NoError(t, err)

	ctx := NewTriggerContext("user-1", "pet-1")
	ctx.SetUserPreference("pet_care_reminders", true)
	ctx.SetValue(ConditionTypeHungerLevel, 20)

	result := rule.Evaluate(ctx)
	assert.True(t, result.ShouldTrigger)

	// Сытость выше порога — не срабатывает
	ctx.SetValue(ConditionTypeHungerLevel, 60)
	result = rule.Evaluate(ctx)
	assert.False(t, result.ShouldTrigger)
	assert.Equal(t, "conditions not met", result.Reason)
}

func TestTriggerRuleConsent(t *testing.T) {
	rule, err := NewInactivityRule("rule-inactive", 3)
	require.NoError(t, err)

	ctx := NewTriggerContext("user-1", "pet-1")
	ctx.SetValue(ConditionTypeInactiveDays, 5)

	// Без согласия пользователя правило молчит
	result := rule.Evaluate(ctx)
	assert.False(t, result.ShouldTrigger)
	assert.Equal(t, "user consent not given", result.Reason)

	ctx.SetUserPreference("inactivity_reminders", true)
	result = rule.Evaluate(ctx)
	assert.True(t, result.ShouldTrigger)
}

func TestTriggerRuleCooldown(t *testing.T) {
	rule, err := NewPetDiedRule("rule-died")
	require.NoError(t, err)
	rule.SetCooldown(time.Hour)

	ctx := NewTriggerContext("user-1", "pet-1")
	ctx.SetValue(ConditionTypePetDied, 1)

	recent := time.Now().UTC().Add(-10 * time.Minute)
	ctx.LastTriggeredAt = &recent

	result := rule.Evaluate(ctx)
	assert.False(t, result.ShouldTrigger)
	assert.Equal(t, "cooldown period not elapsed", result.Reason)
}

func TestTimeConstraintOvernightWindow(t *testing.T) {
	tc, err := NewTimeConstraint(21, 9, "")
	require.NoError(t, err)

	midnight := time.Date(2025, 6, 1, 0, 30, 0, 0, time.UTC)
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, tc.IsAllowed(midnight))
	assert.False(t, tc.IsAllowed(noon))
}

func TestConditionOperators(t *testing.T) {
	between, err := NewRangeCondition(ConditionTypeBoredomLevel, 100, 150)
	require.NoError(t, err)
	assert.True(t, between.Evaluate(120))
	assert.False(t, between.Evaluate(160))

	list, err := NewListCondition(ConditionTypeTopEntered, OpIn, []int{3, 10})
	require.NoError(t, err)
	assert.True(t, list.Evaluate(3))
	assert.False(t, list.Evaluate(5))
}
