package gemini

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         2,
		WaitTimeout:       50 * time.Millisecond,
	})

	ctx := context.Background()
	require.NoError(t, rl.Allow(ctx))
	require.NoError(t, rl.Allow(ctx))

	// Bucket drained and the refill is far too slow for the wait budget.
	err := rl.Allow(ctx)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Greater(t, rlErr.RetryAfter, time.Duration(0))
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstSize:         1,
		WaitTimeout:       time.Hour,
	})

	require.NoError(t, rl.Allow(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Allow(ctx), context.Canceled)
}

func TestRateLimiter_RecordRateLimitHit(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	before := rl.Status()

	rl.RecordRateLimitHit(time.Minute)

	after := rl.Status()
	assert.Zero(t, after.AvailableTokens)
	assert.Less(t, after.RefillRate, before.RefillRate)
	assert.True(t, after.LastRequest.After(time.Now()))
}

func TestRateLimiter_Reset(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.RecordRateLimitHit(time.Minute)

	rl.Reset()

	st := rl.Status()
	assert.Equal(t, st.MaxTokens, st.AvailableTokens)
	assert.Zero(t, st.ConsecutiveWaits)
	require.NoError(t, rl.Allow(context.Background()))
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:   3,
		SuccessThreshold:   1,
		Timeout:            time.Hour,
		HalfOpenMaxRetries: 1,
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, cb.Allow())
		cb.RecordFailure()
	}

	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:   2,
		SuccessThreshold:   1,
		Timeout:            time.Hour,
		HalfOpenMaxRetries: 1,
	})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	// Streak was reset, threshold never reached.
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:   1,
		SuccessThreshold:   2,
		Timeout:            0,
		HalfOpenMaxRetries: 3,
	})

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	// Timeout=0: the very next Allow moves to half-open.
	require.NoError(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:   1,
		SuccessThreshold:   2,
		Timeout:            0,
		HalfOpenMaxRetries: 3,
	})

	cb.RecordFailure()
	require.NoError(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestRetryConfig_CalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff:    time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, time.Second, cfg.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, cfg.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, cfg.CalculateBackoff(2))
	// Capped.
	assert.Equal(t, 10*time.Second, cfg.CalculateBackoff(10))
}

func TestRetryConfig_JitterIsDeterministic(t *testing.T) {
	cfg := DefaultRetryConfig()

	first := cfg.CalculateBackoff(1)
	second := cfg.CalculateBackoff(1)
	assert.Equal(t, first, second)

	// Jitter keeps the pause within half the spread of the base.
	base := 2 * time.Second
	spread := time.Duration(float64(base) * cfg.Jitter)
	assert.GreaterOrEqual(t, first, base-spread)
	assert.LessOrEqual(t, first, base+spread)
}
