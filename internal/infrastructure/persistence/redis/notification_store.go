package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studygotchi/studygotchi-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION STORE
// ══════════════════════════════════════════════════════════════════════════════

// Key layout for notification storage.
//
//	notif:item:{id}          JSON body of a single notification, TTL-bound
//	notif:pending            zset of ids scored by effective send time
//	notif:status:{status}    zset of ids scored by last update time
//	notif:recipient:{rid}    zset of ids scored by creation time
//	notif:type:{type}        zset of ids scored by creation time
//	notif:created            zset of all ids scored by creation time
//
// Уведомления эфемерны: ключ истекает через TTLNotification, а индексы
// чистятся лениво при чтении. Просроченная запись в индексе без тела
// просто пропускается.
const (
	keyNotifItem      = PrefixNotification + "item:"
	keyNotifPending   = PrefixNotification + "pending"
	keyNotifStatus    = PrefixNotification + "status:"
	keyNotifRecipient = PrefixNotification + "recipient:"
	keyNotifType      = PrefixNotification + "type:"
	keyNotifCreated   = PrefixNotification + "created"
)

// NotificationStore implements notification.NotificationRepository on Redis.
type NotificationStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewNotificationStore creates a new NotificationStore.
func NewNotificationStore(cache *Cache) *NotificationStore {
	return &NotificationStore{cache: cache, ttl: TTLNotification}
}

// storedNotification is the JSON wire form of a notification.
type storedNotification struct {
	ID          string                        `json:"id"`
	Type        string                        `json:"type"`
	RecipientID string                        `json:"recipient_id"`
	PushToken   string                        `json:"push_token,omitempty"`
	Priority    int                           `json:"priority"`
	Status      string                        `json:"status"`
	Title       string                        `json:"title,omitempty"`
	Message     string                        `json:"message"`
	Data        notification.NotificationData `json:"data"`
	ScheduledAt *time.Time                    `json:"scheduled_at,omitempty"`
	SentAt      *time.Time                    `json:"sent_at,omitempty"`
	DeliveredAt *time.Time                    `json:"delivered_at,omitempty"`
	ExpiresAt   *time.Time                    `json:"expires_at,omitempty"`
	RetryCount  int                           `json:"retry_count"`
	MaxRetries  int                           `json:"max_retries"`
	LastError   string                        `json:"last_error,omitempty"`
	Metadata    map[string]string             `json:"metadata,omitempty"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

func toStoredNotification(n *notification.Notification) *storedNotification {
	return &storedNotification{
		ID:          string(n.ID),
		Type:        string(n.Type),
		RecipientID: string(n.RecipientID),
		PushToken:   string(n.PushToken),
		Priority:    int(n.Priority),
		Status:      string(n.Status),
		Title:       n.Title,
		Message:     n.Message,
		Data:        n.Data,
		ScheduledAt: n.ScheduledAt,
		SentAt:      n.SentAt,
		DeliveredAt: n.DeliveredAt,
		ExpiresAt:   n.ExpiresAt,
		RetryCount:  n.RetryCount,
		MaxRetries:  n.MaxRetries,
		LastError:   n.LastError,
		Metadata:    n.Metadata,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func (s *storedNotification) toDomain() *notification.Notification {
	return &notification.Notification{
		ID:          notification.NotificationID(s.ID),
		Type:        notification.NotificationType(s.Type),
		RecipientID: notification.RecipientID(s.RecipientID),
		PushToken:   notification.PushToken(s.PushToken),
		Priority:    notification.Priority(s.Priority),
		Status:      notification.NotificationStatus(s.Status),
		Title:       s.Title,
		Message:     s.Message,
		Data:        s.Data,
		ScheduledAt: s.ScheduledAt,
		SentAt:      s.SentAt,
		DeliveredAt: s.DeliveredAt,
		ExpiresAt:   s.ExpiresAt,
		RetryCount:  s.RetryCount,
		MaxRetries:  s.MaxRetries,
		LastError:   s.LastError,
		Metadata:    s.Metadata,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func notifItemKey(id notification.NotificationID) string {
	return keyNotifItem + string(id)
}

func notifStatusKey(status notification.NotificationStatus) string {
	return keyNotifStatus + string(status)
}

// effectiveSendTime is the score used in the pending zset: scheduled
// notifications surface only when their time comes.
func effectiveSendTime(n *notification.Notification) time.Time {
	if n.ScheduledAt != nil {
		return *n.ScheduledAt
	}
	return n.CreatedAt
}

func isQueueableStatus(status notification.NotificationStatus) bool {
	return status == notification.StatusPending || status == notification.StatusQueued
}

// Save persists a notification and keeps the secondary indexes in step.
// Повторный Save того же ID перезаписывает тело и переносит ID между
// статусными индексами.
func (s *NotificationStore) Save(ctx context.Context, n *notification.Notification) error {
	if n == nil {
		return ErrCacheNilValue
	}
	if n.ID == "" {
		return ErrCacheKeyEmpty
	}

	payload, err := json.Marshal(toStoredNotification(n))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	// Prior status is needed to move the ID between status indexes.
	var prevStatus notification.NotificationStatus
	if prev, err := s.GetByID(ctx, n.ID); err == nil {
		prevStatus = prev.Status
	} else if !errors.Is(err, notification.ErrNotificationNotFound) {
		return err
	}

	id := string(n.ID)
	client := s.cache.Client()
	pipe := client.TxPipeline()
	pipe.Set(ctx, notifItemKey(n.ID), payload, s.ttl)
	if prevStatus != "" && prevStatus != n.Status {
		pipe.ZRem(ctx, notifStatusKey(prevStatus), id)
	}
	pipe.ZAdd(ctx, notifStatusKey(n.Status), redis.Z{Score: float64(n.UpdatedAt.UnixMilli()), Member: id})
	if isQueueableStatus(n.Status) {
		pipe.ZAdd(ctx, keyNotifPending, redis.Z{Score: float64(effectiveSendTime(n).UnixMilli()), Member: id})
	} else {
		pipe.ZRem(ctx, keyNotifPending, id)
	}
	pipe.ZAdd(ctx, keyNotifRecipient+string(n.RecipientID), redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: id})
	pipe.ZAdd(ctx, keyNotifType+string(n.Type), redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: id})
	pipe.ZAdd(ctx, keyNotifCreated, redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: id})
	pipe.Expire(ctx, keyNotifRecipient+string(n.RecipientID), s.ttl)
	pipe.Expire(ctx, keyNotifType+string(n.Type), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: save notification: %v", ErrCacheConnection, err)
	}
	return nil
}

// GetByID returns a notification by ID.
func (s *NotificationStore) GetByID(ctx context.Context, id notification.NotificationID) (*notification.Notification, error) {
	raw, err := s.cache.GetString(ctx, notifItemKey(id))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, err
	}

	var stored storedNotification
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("%w: corrupt notification %s: %v", ErrCacheSerialization, id, err)
	}
	return stored.toDomain(), nil
}

// GetPending returns notifications whose effective send time has come,
// oldest first.
func (s *NotificationStore) GetPending(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	now := time.Now().UTC().UnixMilli()
	ids, err := s.cache.Client().ZRangeByScore(ctx, keyNotifPending, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: pending range: %v", ErrCacheConnection, err)
	}
	return s.loadBatch(ctx, keyNotifPending, ids)
}

// GetByRecipient returns the recipient's notifications, newest first.
func (s *NotificationStore) GetByRecipient(ctx context.Context, recipientID notification.RecipientID, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	key := keyNotifRecipient + string(recipientID)
	ids, err := s.cache.Client().ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: recipient range: %v", ErrCacheConnection, err)
	}
	return s.loadBatch(ctx, key, ids)
}

// GetByStatus returns notifications in the given status, oldest update first.
func (s *NotificationStore) GetByStatus(ctx context.Context, status notification.NotificationStatus, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	key := notifStatusKey(status)
	ids, err := s.cache.Client().ZRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: status range: %v", ErrCacheConnection, err)
	}
	return s.loadBatch(ctx, key, ids)
}

// GetFailedForRetry returns failed notifications that have attempts left.
func (s *NotificationStore) GetFailedForRetry(ctx context.Context, maxRetries int, limit int) ([]*notification.Notification, error) {
	failed, err := s.GetByStatus(ctx, notification.StatusFailed, limit)
	if err != nil {
		return nil, err
	}

	eligible := make([]*notification.Notification, 0, len(failed))
	for _, n := range failed {
		if n.RetryCount < maxRetries && n.CanRetry() {
			eligible = append(eligible, n)
		}
	}
	return eligible, nil
}

// GetExpired returns queued notifications whose deadline has passed.
func (s *NotificationStore) GetExpired(ctx context.Context, limit int) ([]*notification.Notification, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := s.cache.Client().ZRange(ctx, keyNotifPending, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: pending range: %v", ErrCacheConnection, err)
	}

	all, err := s.loadBatch(ctx, keyNotifPending, ids)
	if err != nil {
		return nil, err
	}

	expired := make([]*notification.Notification, 0)
	for _, n := range all {
		if n.IsExpired() {
			expired = append(expired, n)
			if len(expired) >= limit {
				break
			}
		}
	}
	return expired, nil
}

// UpdateStatus overwrites the status field without touching the rest of
// the notification.
func (s *NotificationStore) UpdateStatus(ctx context.Context, id notification.NotificationID, status notification.NotificationStatus) error {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	return s.Save(ctx, n)
}

// Delete removes a notification and its index entries.
func (s *NotificationStore) Delete(ctx context.Context, id notification.NotificationID) error {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	member := string(id)
	pipe := s.cache.Client().TxPipeline()
	pipe.Del(ctx, notifItemKey(id))
	pipe.ZRem(ctx, keyNotifPending, member)
	pipe.ZRem(ctx, notifStatusKey(n.Status), member)
	pipe.ZRem(ctx, keyNotifRecipient+string(n.RecipientID), member)
	pipe.ZRem(ctx, keyNotifType+string(n.Type), member)
	pipe.ZRem(ctx, keyNotifCreated, member)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete notification: %v", ErrCacheConnection, err)
	}
	return nil
}

// DeleteOlderThan removes notifications created before the cutoff.
func (s *NotificationStore) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.cache.Client().ZRangeByScore(ctx, keyNotifCreated, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: created range: %v", ErrCacheConnection, err)
	}

	var deleted int64
	for _, raw := range ids {
		err := s.Delete(ctx, notification.NotificationID(raw))
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, notification.ErrNotificationNotFound):
			// Body already expired; drop the dangling index entry.
			s.cache.Client().ZRem(ctx, keyNotifCreated, raw)
		default:
			return deleted, err
		}
	}
	return deleted, nil
}

// CountByRecipient returns how many notifications the recipient received
// since the given time.
func (s *NotificationStore) CountByRecipient(ctx context.Context, recipientID notification.RecipientID, since time.Time) (int, error) {
	count, err := s.cache.Client().ZCount(ctx,
		keyNotifRecipient+string(recipientID),
		strconv.FormatInt(since.UnixMilli(), 10),
		"+inf",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: recipient count: %v", ErrCacheConnection, err)
	}
	return int(count), nil
}

// CountByType returns how many notifications of the type were created
// since the given time.
func (s *NotificationStore) CountByType(ctx context.Context, notificationType notification.NotificationType, since time.Time) (int, error) {
	count, err := s.cache.Client().ZCount(ctx,
		keyNotifType+string(notificationType),
		strconv.FormatInt(since.UnixMilli(), 10),
		"+inf",
	).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: type count: %v", ErrCacheConnection, err)
	}
	return int(count), nil
}

// loadBatch resolves index members into notifications, lazily pruning
// members whose bodies have expired.
func (s *NotificationStore) loadBatch(ctx context.Context, indexKey string, ids []string) ([]*notification.Notification, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyNotifItem + id
	}

	values, err := s.cache.Client().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: mget notifications: %v", ErrCacheConnection, err)
	}

	result := make([]*notification.Notification, 0, len(ids))
	var stale []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var stored storedNotification
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return nil, fmt.Errorf("%w: corrupt notification %s: %v", ErrCacheSerialization, ids[i], err)
		}
		result = append(result, stored.toDomain())
	}
	if len(stale) > 0 {
		s.cache.Client().ZRem(ctx, indexKey, stale...)
	}
	return result, nil
}
