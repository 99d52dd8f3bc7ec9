package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// ChannelRouter implements notification.NotificationSender. It keeps the
// registered delivery channels and picks the first one that can serve a
// given notification.
//
// Порядок регистрации — это и есть порядок предпочтения: канал,
// зарегистрированный раньше, пробуется первым.
type ChannelRouter struct {
	mu       sync.RWMutex
	order    []notification.ChannelType
	channels map[notification.ChannelType]notification.NotificationChannel
	logger   *slog.Logger
}

// NewChannelRouter создаёт новый роутер каналов.
func NewChannelRouter(logger *slog.Logger) *ChannelRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelRouter{
		channels: make(map[notification.ChannelType]notification.NotificationChannel),
		logger:   logger.With("component", "channel_router"),
	}
}

// RegisterChannel registers a delivery channel.
func (r *ChannelRouter) RegisterChannel(channel notification.NotificationChannel) {
	if channel == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[channel.Type()]; !exists {
		r.order = append(r.order, channel.Type())
	}
	r.channels[channel.Type()] = channel
}

// GetChannel returns a channel by type.
func (r *ChannelRouter) GetChannel(channelType notification.ChannelType) (notification.NotificationChannel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[channelType]
	return ch, ok
}

// GetAvailableChannels returns the types of channels that currently answer.
func (r *ChannelRouter) GetAvailableChannels(ctx context.Context) []notification.ChannelType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := make([]notification.ChannelType, 0, len(r.order))
	for _, t := range r.order {
		if r.channels[t].IsAvailable(ctx) {
			available = append(available, t)
		}
	}
	return available
}

// Send delivers the notification through the first channel that supports
// its recipient and is currently available.
func (r *ChannelRouter) Send(ctx context.Context, n *notification.Notification) notification.DeliveryResult {
	for _, ch := range r.candidates(n) {
		if !ch.IsAvailable(ctx) {
			r.logger.Warn("channel unavailable, trying next",
				"channel", ch.Type(),
				"notification_id", n.ID,
			)
			continue
		}

		result := ch.Send(ctx, n, notification.DefaultDeliveryOptions())
		if result.Success || !result.Retryable {
			return result
		}
		r.logger.Warn("channel delivery failed, trying next",
			"channel", ch.Type(),
			"notification_id", n.ID,
			"error", result.Error,
		)
	}
	return notification.NewFailureResult("", notification.ErrChannelNotFound, true)
}

// SendBatch delivers a batch through the first channel that supports the
// first notification of the batch.
func (r *ChannelRouter) SendBatch(ctx context.Context, batch *notification.NotificationBatch) notification.DeliveryResult {
	if batch == nil || len(batch.Notifications) == 0 {
		return notification.NewFailureResult("", notification.ErrInvalidMessage, false)
	}

	for _, ch := range r.candidates(batch.Notifications[0]) {
		if !ch.IsAvailable(ctx) {
			continue
		}
		result := ch.SendBatch(ctx, batch, notification.DefaultDeliveryOptions())
		if result.Success || !result.Retryable {
			return result
		}
	}
	return notification.NewFailureResult("", notification.ErrChannelNotFound, true)
}

func (r *ChannelRouter) candidates(n *notification.Notification) []notification.NotificationChannel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notification.NotificationChannel, 0, len(r.order))
	for _, t := range r.order {
		if ch := r.channels[t]; ch.SupportsRecipient(n) {
			out = append(out, ch)
		}
	}
	return out
}
