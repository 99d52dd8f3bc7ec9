// Package redis implements the Redis side of Studygotchi Hub persistence.
// Postgres is the system of record; Redis carries the hot, expiring state:
// session starts, activity cooldowns, chat sessions, the live leaderboard
// and the pet read cache.
//
// Key components:
//   - Cache: general-purpose caching with TTL management
//   - PetCache: pet read model keyed by pet and by owner
//   - SessionTracker: session-start checkpoints with TTL
//   - CooldownRegistry: per-pet minigame replay windows
//   - ChatStore: active chat sessions
//   - LeaderboardCache: hot ranking with sorted sets
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	MaxRetries   int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization/deserialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheInvalidTTL is returned when an invalid TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache: invalid TTL")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrCacheNilValue is returned when attempting to cache a nil value.
	ErrCacheNilValue = errors.New("cache: value cannot be nil")
)

// Key prefixes for namespacing Redis keys.
const (
	PrefixPet          = "pet:"
	PrefixPetOwner     = "pet:owner:"
	PrefixLeaderboard  = "leaderboard:"
	PrefixSession      = "session:"
	PrefixCooldown     = "cooldown:"
	PrefixChat         = "chat:"
	PrefixNotification = "notif:"
	PrefixAuthToken    = "auth:token:"
)

const (
	// TTLSession is how long a session-start checkpoint survives without
	// a touch. When it expires, the next request re-baselines decay.
	TTLSession = 30 * time.Minute

	// TTLLeaderboardCache is the TTL for the hot leaderboard.
	TTLLeaderboardCache = 5 * time.Minute

	// TTLNotification caps how long stored notifications and per-user
	// inboxes live. After a week an undelivered notification is stale
	// noise anyway.
	TTLNotification = 7 * 24 * time.Hour

	// TTLAuthToken is how long an issued bearer token stays valid.
	// Each authenticated request slides the expiry forward.
	TTLAuthToken = 30 * 24 * time.Hour
)

// Cache wraps a Redis client with JSON serialization and key/TTL guards.
// The specialised stores in this package are built on top of it.
type Cache struct {
	client *redis.Client
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}
	return &Cache{client: client}, nil
}

// Client exposes the underlying Redis client for operations the wrapper
// does not cover (pipelines, sorted sets).
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func guard(key string, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if ttl < 0 {
		return ErrCacheInvalidTTL
	}
	return nil
}

// Set stores a value as JSON under the key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := guard(key, ttl); err != nil {
		return err
	}
	if value == nil {
		return ErrCacheNilValue
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// SetString stores a raw string without JSON serialization.
func (c *Cache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := guard(key, ttl); err != nil {
		return err
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get reads a key and unmarshals the JSON value into dest.
// Returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return nil
}

// GetString reads a raw string value.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrCacheKeyEmpty
	}

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", ErrCacheMiss
	case err != nil:
		return "", err
	}
	return val, nil
}

// Delete removes keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Expire sets a new TTL on an existing key.
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := guard(key, ttl); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, ttl).Err()
}

// SetNX sets a string value only if the key doesn't exist.
// Used for session-start checkpoints.
func (c *Cache) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	if err := guard(key, ttl); err != nil {
		return false, err
	}
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

// scan walks keys matching the pattern with SCAN, calling visit for each.
func (c *Cache) scan(ctx context.Context, pattern string, visit func(key string) error) error {
	if pattern == "" {
		return ErrCacheKeyEmpty
	}

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := visit(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

// ScanKeys returns all keys matching a pattern.
// SCAN-based, safe for production unlike KEYS.
func (c *Cache) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := c.scan(ctx, pattern, func(key string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteByPattern deletes all keys matching a pattern, in chunks of 100.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	var batch []string
	err := c.scan(ctx, pattern, func(key string) error {
		batch = append(batch, key)
		if len(batch) >= 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

// PetKey generates a cache key for pet data.
func PetKey(petID string) string {
	return PrefixPet + petID
}

// PetOwnerKey generates a cache key for the owner-keyed pet cache.
func PetOwnerKey(userID string) string {
	return PrefixPetOwner + userID
}

// SessionKey generates a cache key for a session-start checkpoint.
func SessionKey(userID string) string {
	return PrefixSession + userID
}

// CooldownKey generates a cache key for a pet+game cooldown checkpoint.
func CooldownKey(petID, gameID string) string {
	return PrefixCooldown + petID + ":" + gameID
}

// ChatKey generates a cache key for a user's active chat session.
func ChatKey(userID string) string {
	return PrefixChat + userID
}
