package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// Dispatcher binds named handlers to event types on top of the bus and
// adds what raw handlers lack: per-attempt timeouts, retries with
// backoff and a bounded dead-letter buffer for events that exhausted
// their retries.
type Dispatcher struct {
	bus         shared.EventBus
	mu          sync.RWMutex
	bindings    map[shared.EventType][]binding
	retryConfig RetryConfig
	deadLetters *deadLetterBuffer
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type binding struct {
	name    string
	handler shared.EventHandler
	timeout time.Duration
	retries int
}

// RetryConfig controls the retry behavior for failed handlers.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the defaults used by both binaries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DispatcherBuilder assembles a Dispatcher.
type DispatcherBuilder struct {
	bus         shared.EventBus
	retryConfig RetryConfig
	dlqSize     int
	logger      *slog.Logger
}

// NewDispatcherBuilder starts a builder over the given bus.
func NewDispatcherBuilder(bus shared.EventBus) *DispatcherBuilder {
	return &DispatcherBuilder{
		bus:         bus,
		retryConfig: DefaultRetryConfig(),
		dlqSize:     1000,
	}
}

// WithRetryConfig overrides the default retry policy.
func (b *DispatcherBuilder) WithRetryConfig(cfg RetryConfig) *DispatcherBuilder {
	b.retryConfig = cfg
	return b
}

// WithLogger sets the logger.
func (b *DispatcherBuilder) WithLogger(logger *slog.Logger) *DispatcherBuilder {
	b.logger = logger
	return b
}

// Build creates the dispatcher.
func (b *DispatcherBuilder) Build() *Dispatcher {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		bus:         b.bus,
		bindings:    make(map[shared.EventType][]binding),
		retryConfig: b.retryConfig,
		deadLetters: newDeadLetterBuffer(b.dlqSize),
		logger:      logger.With("component", "dispatcher"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register binds a handler under a name with default timeout and retries.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[eventType] = append(d.bindings[eventType], binding{
		name:    name,
		handler: handler,
		timeout: 30 * time.Second,
		retries: d.retryConfig.MaxRetries,
	})
	return nil
}

// Start subscribes the dispatcher to the bus.
func (d *Dispatcher) Start() error {
	return d.bus.SubscribeAll(d.dispatch)
}

// Stop cancels in-flight retries.
func (d *Dispatcher) Stop() error {
	d.cancel()
	return nil
}

// DeadLetters returns events that failed all retry attempts, oldest first.
func (d *Dispatcher) DeadLetters() []DeadLetter {
	return d.deadLetters.snapshot()
}

func (d *Dispatcher) dispatch(event shared.Event) error {
	d.mu.RLock()
	bound := d.bindings[event.EventType()]
	d.mu.RUnlock()

	for _, b := range bound {
		if err := d.runWithRetry(event, b); err != nil {
			d.logger.Error("handler exhausted retries",
				"handler", b.name,
				"event_type", event.EventType(),
				"error", err,
			)
		}
	}
	// A handler failure must not fail the publish.
	return nil
}

func (d *Dispatcher) runWithRetry(event shared.Event, b binding) error {
	var lastErr error
	backoff := d.retryConfig.InitialBackoff

	for attempt := 0; attempt <= b.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-d.ctx.Done():
				return d.ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * d.retryConfig.BackoffMultiplier)
			if backoff > d.retryConfig.MaxBackoff {
				backoff = d.retryConfig.MaxBackoff
			}
		}

		lastErr = d.runOnce(event, b)
		if lastErr == nil {
			return nil
		}
		d.logger.Warn("handler attempt failed",
			"handler", b.name,
			"attempt", attempt+1,
			"error", lastErr,
		)
	}

	d.deadLetters.add(DeadLetter{
		Event:       event,
		HandlerName: b.name,
		Error:       lastErr,
		Attempts:    b.retries + 1,
		FailedAt:    time.Now(),
	})
	return fmt.Errorf("after %d attempts: %w", b.retries+1, lastErr)
}

func (d *Dispatcher) runOnce(event shared.Event, b binding) error {
	done := make(chan error, 1)
	go func() { done <- b.handler(event) }()

	select {
	case err := <-done:
		return err
	case <-time.After(b.timeout):
		return fmt.Errorf("handler %s timed out after %v", b.name, b.timeout)
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// DeadLetter records one event a handler could not process.
type DeadLetter struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// deadLetterBuffer is a fixed-capacity ring; the oldest entry is
// dropped when full.
type deadLetterBuffer struct {
	mu      sync.Mutex
	entries []DeadLetter
	cap     int
}

func newDeadLetterBuffer(capacity int) *deadLetterBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &deadLetterBuffer{cap: capacity}
}

func (b *deadLetterBuffer) add(entry DeadLetter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) >= b.cap {
		b.entries = b.entries[1:]
	}
	b.entries = append(b.entries, entry)
}

func (b *deadLetterBuffer) snapshot() []DeadLetter {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DeadLetter, len(b.entries))
	copy(out, b.entries)
	return out
}
