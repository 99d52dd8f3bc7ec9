// Package retry reruns failing operations with exponential backoff and
// jitter. Used for outbound HTTP calls where transient failures are
// expected.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Config controls the retry loop.
type Config struct {
	// MaxAttempts counts the first try too.
	MaxAttempts int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier grows the delay after each failed attempt.
	Multiplier float64
	// JitterFactor randomizes each delay by ±factor.
	JitterFactor float64
	// RetryIf decides whether an error is worth another attempt.
	// When nil, every error is retried.
	RetryIf func(error) bool
	// OnRetry fires before each wait, for logging.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Option mutates a Config.
type Option func(*Config)

// WithMaxAttempts sets the total attempt count.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the first backoff delay.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay caps the backoff.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithRetryIf installs the error filter.
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

// WithOnRetry installs the pre-wait callback.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier executes operations under one retry policy.
type Retrier struct {
	cfg Config
}

// New builds a Retrier; unset options keep their defaults.
func New(opts ...Option) *Retrier {
	cfg := Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do runs op until it succeeds, the error filter rejects, attempts run
// out, or ctx is cancelled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	delay := r.cfg.InitialDelay

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if r.cfg.RetryIf != nil && !r.cfg.RetryIf(lastErr) {
			return lastErr
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		wait := r.jittered(delay)
		if r.cfg.OnRetry != nil {
			r.cfg.OnRetry(attempt, lastErr, wait)
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
	return lastErr
}

func (r *Retrier) jittered(d time.Duration) time.Duration {
	if r.cfg.JitterFactor <= 0 {
		return d
	}
	spread := float64(d) * r.cfg.JitterFactor
	out := float64(d) + (rand.Float64()*2-1)*spread
	if out < 0 {
		return 0
	}
	return time.Duration(out)
}

// Do is a one-shot helper for callers without a long-lived Retrier.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	return New(opts...).Do(ctx, op)
}
