// Package gemini implements the Google Gemini API client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is a token bucket sized for the Gemini quota. The free
// tier enforces a per-minute cap; pacing locally is cheaper than
// eating 429 responses.
type RateLimiter struct {
	mu sync.Mutex

	capacity    float64
	rate        float64 // tokens per second
	available   float64
	refilledAt  time.Time
	minInterval time.Duration
	lastTakeAt  time.Time
	waitBudget  time.Duration
	penalties   int // consecutive waits, drives adaptive backoff
}

// RateLimiterConfig sizes the bucket.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity.
	BurstSize int
	// MinInterval spaces out requests even when tokens are available.
	MinInterval time.Duration
	// WaitTimeout bounds how long Allow may block.
	WaitTimeout time.Duration
	// RetryAfter is the fallback pause after a server-side 429.
	RetryAfter time.Duration
}

// DefaultRateLimiterConfig matches the flash-lite free tier
// (15 requests per minute).
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 0.25,
		BurstSize:         3,
		MinInterval:       500 * time.Millisecond,
		WaitTimeout:       30 * time.Second,
		RetryAfter:        60 * time.Second,
	}
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		capacity:    float64(cfg.BurstSize),
		rate:        cfg.RequestsPerSecond,
		available:   float64(cfg.BurstSize),
		refilledAt:  now,
		minInterval: cfg.MinInterval,
		lastTakeAt:  now.Add(-cfg.MinInterval),
		waitBudget:  cfg.WaitTimeout,
	}
}

// RateLimitError reports a locally enforced limit.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string { return e.Message }

// Is matches any RateLimitError regardless of fields.
func (e *RateLimitError) Is(target error) bool {
	_, ok := target.(*RateLimitError)
	return ok
}

// Allow blocks until a token is available or the wait budget runs out.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitBudget)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := rl.take()
		if wait == 0 {
			return nil
		}
		if time.Now().Add(wait).After(deadline) {
			return &RateLimitError{
				RetryAfter: wait,
				Message:    fmt.Sprintf("rate limit exceeded, retry after %s", wait),
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// take consumes a token, or returns how long to wait for one.
func (rl *RateLimiter) take() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.refilledAt).Seconds()
	if elapsed > 0 {
		rl.available += elapsed * rl.rate
		if rl.available > rl.capacity {
			rl.available = rl.capacity
		}
		rl.refilledAt = now
	}

	if since := now.Sub(rl.lastTakeAt); since < rl.minInterval {
		return rl.minInterval - since
	}

	if rl.available < 1 {
		wait := time.Duration((1 - rl.available) / rl.rate * float64(time.Second))
		// Each consecutive wait doubles the pause, capped at 32x.
		if rl.penalties > 0 {
			shift := rl.penalties
			if shift > 5 {
				shift = 5
			}
			wait *= time.Duration(1 << uint(shift))
		}
		rl.penalties++
		return wait
	}

	rl.available--
	rl.lastTakeAt = now
	rl.penalties = 0
	return 0
}

// RecordRateLimitHit drains the bucket after a server-side 429 and
// throttles the refill rate for the rest of the process lifetime.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.available = 0
	rl.rate *= 0.8
	rl.penalties++

	// Honor the server-provided pause via the spacing gate.
	rl.lastTakeAt = time.Now()
	if retryAfter > rl.minInterval {
		rl.lastTakeAt = rl.lastTakeAt.Add(retryAfter - rl.minInterval)
	}
}

// Reset refills the bucket.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.available = rl.capacity
	rl.refilledAt = time.Now()
	rl.lastTakeAt = time.Now().Add(-rl.minInterval)
	rl.penalties = 0
}

// RateLimiterStatus is a snapshot for the ops endpoint.
type RateLimiterStatus struct {
	AvailableTokens  float64
	MaxTokens        float64
	RefillRate       float64
	LastRequest      time.Time
	ConsecutiveWaits int
}

// Status reports the limiter state.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return RateLimiterStatus{
		AvailableTokens:  rl.available,
		MaxTokens:        rl.capacity,
		RefillRate:       rl.rate,
		LastRequest:      rl.lastTakeAt,
		ConsecutiveWaits: rl.penalties,
	}
}

// CircuitState of the client-local breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned while the breaker fails fast.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig tunes the breaker.
type CircuitBreakerConfig struct {
	FailureThreshold   int
	SuccessThreshold   int
	Timeout            time.Duration
	HalfOpenMaxRetries int
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:   5,
		SuccessThreshold:   2,
		Timeout:            30 * time.Second,
		HalfOpenMaxRetries: 3,
	}
}

// CircuitBreaker fails fast while Gemini is down, so the exam saga can
// drop to its in-character apology without a 30s hang. Unlike the
// generic breaker in pkg/circuitbreaker it splits admission from
// outcome recording, which the client's retry loop needs.
type CircuitBreaker struct {
	mu  sync.RWMutex
	cfg CircuitBreakerConfig

	state     CircuitState
	failures  int
	successes int
	probes    int
	changedAt time.Time
	failedAt  time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: CircuitClosed, changedAt: time.Now()}
}

// Allow reports whether the next request may proceed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if time.Since(cb.changedAt) <= cb.cfg.Timeout {
			return ErrCircuitOpen
		}
		cb.shift(CircuitHalfOpen)
		cb.probes = 1
		return nil
	case CircuitHalfOpen:
		if cb.probes >= cb.cfg.HalfOpenMaxRetries {
			return ErrCircuitOpen
		}
		cb.probes++
		return nil
	default:
		return nil
	}
}

// RecordSuccess feeds a successful call back into the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.shift(CircuitClosed)
		}
		return
	}
	cb.failures = 0
}

// RecordFailure feeds a failed call back into the breaker.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.failedAt = time.Now()

	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.shift(CircuitOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset closes the breaker.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.shift(CircuitClosed)
}

// shift assumes the lock is held.
func (cb *CircuitBreaker) shift(to CircuitState) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	cb.changedAt = time.Now()
}

// CircuitBreakerStatus is a snapshot for the ops endpoint.
type CircuitBreakerStatus struct {
	State           CircuitState
	Failures        int
	Successes       int
	LastFailureTime time.Time
	LastStateChange time.Time
}

// Status reports the breaker state.
func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return CircuitBreakerStatus{
		State:           cb.state,
		Failures:        cb.failures,
		Successes:       cb.successes,
		LastFailureTime: cb.failedAt,
		LastStateChange: cb.changedAt,
	}
}

// RetryConfig drives the client's inline retry loop.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Second,
		MaxBackoff:        15 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
	}
}

// CalculateBackoff returns the pause before the given retry attempt.
// Jitter is deterministic, keyed on the attempt number, so tests stay
// reproducible.
func (c RetryConfig) CalculateBackoff(attempt int) time.Duration {
	if attempt <= 0 {
		return c.InitialBackoff
	}

	backoff := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}

	if c.Jitter > 0 {
		spread := backoff * c.Jitter
		offset := spread * float64((attempt*37)%100) / 100.0
		backoff = backoff - spread/2 + offset
	}
	return time.Duration(backoff)
}
