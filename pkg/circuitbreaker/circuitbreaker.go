// Package circuitbreaker stops hammering an external service that is
// already failing. After a run of failures the breaker opens and calls
// fail fast until a probe succeeds.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of the breaker.
type State int

const (
	// StateClosed lets all calls through.
	StateClosed State = iota
	// StateOpen rejects calls without touching the service.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Option configures a breaker.
type Option func(*CircuitBreaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many probe successes close it again.
func WithSuccessThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.successThreshold = n
		}
	}
}

// WithTimeout sets how long the breaker stays open before probing.
func WithTimeout(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.openTimeout = d
		}
	}
}

// WithOnStateChange installs a transition callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onStateChange = fn }
}

// WithIsFailure overrides which errors count against the breaker.
func WithIsFailure(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) { cb.isFailure = fn }
}

// CircuitBreaker guards one downstream service.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	maxProbes        int
	onStateChange    func(name string, from, to State)
	isFailure        func(error) bool

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time
}

// New creates a closed breaker with the given name.
func New(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 2,
		openTimeout:      30 * time.Second,
		maxProbes:        1,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn if the breaker allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed and clears counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.openedAt) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.probes = 1
		return nil
	default: // StateHalfOpen
		if cb.probes >= cb.maxProbes {
			return ErrTooManyRequests
		}
		cb.probes++
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	failed := err != nil
	if failed && cb.isFailure != nil {
		failed = cb.isFailure(err)
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if failed {
		cb.failures++
		cb.successes = 0
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.failureThreshold {
				cb.openedAt = time.Now()
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			// A failed probe reopens immediately.
			cb.openedAt = time.Now()
			cb.transition(StateOpen)
		}
		return
	}

	cb.successes++
	cb.failures = 0
	if cb.state == StateHalfOpen && cb.successes >= cb.successThreshold {
		cb.transition(StateClosed)
	}
}

// transition assumes cb.mu is held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}
