package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-APP CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

const (
	keyNotifInbox = PrefixNotification + "inbox:"

	// inboxCap bounds the per-user feed. The UI shows at most a couple
	// of screens of history anyway.
	inboxCap = 100
)

// InAppChannel delivers notifications into a per-user Redis feed that the
// HTTP API reads back as the in-game inbox.
//
// Это канал по умолчанию: ему не нужна push-подписка, доставка сводится
// к записи в ленту получателя.
type InAppChannel struct {
	cache *Cache
	ttl   time.Duration
}

// NewInAppChannel creates a new InAppChannel.
func NewInAppChannel(cache *Cache) *InAppChannel {
	return &InAppChannel{cache: cache, ttl: TTLNotification}
}

// InboxEntry is a single rendered item in a user's feed.
type InboxEntry struct {
	NotificationID string                        `json:"notification_id"`
	Type           string                        `json:"type"`
	Title          string                        `json:"title,omitempty"`
	Message        string                        `json:"message"`
	Data           notification.NotificationData `json:"data"`
	DeliveredAt    time.Time                     `json:"delivered_at"`
}

func inboxKey(recipientID notification.RecipientID) string {
	return keyNotifInbox + string(recipientID)
}

// Type returns the channel type.
func (c *InAppChannel) Type() notification.ChannelType {
	return notification.ChannelTypeInApp
}

// Send appends the notification to the recipient's feed.
func (c *InAppChannel) Send(ctx context.Context, n *notification.Notification, opts notification.DeliveryOptions) notification.DeliveryResult {
	if n == nil {
		return notification.NewFailureResult(notification.ChannelTypeInApp, notification.ErrInvalidMessage, false)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := c.push(ctx, n); err != nil {
		return notification.NewFailureResult(notification.ChannelTypeInApp, err, true)
	}
	return notification.NewSuccessResult(notification.ChannelTypeInApp, string(n.ID))
}

// SendBatch appends every notification of the batch to the feed.
// Частичный сбой возвращается как сбой всего батча: повторная доставка
// in-app записи безвредна, лента переживёт дубликат.
func (c *InAppChannel) SendBatch(ctx context.Context, batch *notification.NotificationBatch, opts notification.DeliveryOptions) notification.DeliveryResult {
	if batch == nil || len(batch.Notifications) == 0 {
		return notification.NewFailureResult(notification.ChannelTypeInApp, notification.ErrInvalidMessage, false)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	for _, n := range batch.Notifications {
		if err := c.push(ctx, n); err != nil {
			return notification.NewFailureResult(notification.ChannelTypeInApp, err, true)
		}
	}
	return notification.NewSuccessResult(notification.ChannelTypeInApp, string(batch.RecipientID))
}

// IsAvailable reports whether Redis answers.
func (c *InAppChannel) IsAvailable(ctx context.Context) bool {
	return c.cache.Ping(ctx) == nil
}

// SupportsRecipient is true for any valid recipient: in-app delivery
// needs no push token.
func (c *InAppChannel) SupportsRecipient(n *notification.Notification) bool {
	return n != nil && n.RecipientID.IsValid()
}

// Inbox returns the newest entries of the recipient's feed.
func (c *InAppChannel) Inbox(ctx context.Context, recipientID notification.RecipientID, limit int) ([]*InboxEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := c.cache.Client().LRange(ctx, inboxKey(recipientID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: inbox range: %v", ErrCacheConnection, err)
	}

	entries := make([]*InboxEntry, 0, len(raw))
	for _, item := range raw {
		var entry InboxEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("%w: corrupt inbox entry: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

// ClearInbox drops the recipient's feed.
func (c *InAppChannel) ClearInbox(ctx context.Context, recipientID notification.RecipientID) error {
	if err := c.cache.Delete(ctx, inboxKey(recipientID)); err != nil && !errors.Is(err, ErrCacheMiss) {
		return err
	}
	return nil
}

func (c *InAppChannel) push(ctx context.Context, n *notification.Notification) error {
	entry := InboxEntry{
		NotificationID: string(n.ID),
		Type:           string(n.Type),
		Title:          n.Title,
		Message:        n.Message,
		Data:           n.Data,
		DeliveredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	key := inboxKey(n.RecipientID)
	pipe := c.cache.Client().TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, inboxCap-1)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: push inbox entry: %v", ErrCacheConnection, err)
	}
	return nil
}
