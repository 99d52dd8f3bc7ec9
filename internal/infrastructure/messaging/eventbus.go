// Package messaging carries domain events between the write side and
// the event handlers inside one process.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studygotchi/studygotchi-hub/internal/domain/shared"
)

// ErrEventBusClosed is returned for operations on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// InMemoryEventBus fans events out to subscribed handlers. Server and
// worker each run their own bus; events do not cross processes.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	byType      map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	async       bool
	slots       chan struct{}
	logger      *slog.Logger
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig configures the bus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on the worker pool instead of inline.
	AsyncMode bool
	// WorkerPoolSize bounds concurrent async handlers.
	WorkerPoolSize int
	Logger         *slog.Logger
}

// DefaultInMemoryEventBusConfig returns the config both binaries use.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewInMemoryEventBus creates a bus from the config.
func NewInMemoryEventBus(cfg InMemoryEventBusConfig) *InMemoryEventBus {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 10
	}
	return &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		async:   cfg.AsyncMode,
		slots:   make(chan struct{}, cfg.WorkerPoolSize),
		logger:  cfg.Logger,
		closeCh: make(chan struct{}),
	}
}

// Subscribe registers a handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.byType[eventType] = append(b.byType[eventType], handler)
	return nil
}

// SubscribeAll registers a handler that receives every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish delivers the event to all matching handlers. In async mode it
// returns immediately; handler errors are logged, never propagated back
// to the publisher.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.byType[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.byType[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if b.async {
			b.dispatchAsync(event, h)
		} else if err := b.invoke(event, h); err != nil {
			b.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"error", err,
			)
		}
	}
	return nil
}

func (b *InMemoryEventBus) dispatchAsync(event shared.Event, h shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.slots <- struct{}{}:
			defer func() { <-b.slots }()
		case <-b.closeCh:
			return
		}

		started := time.Now()
		if err := b.invoke(event, h); err != nil {
			b.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"duration", time.Since(started),
				"error", err,
			)
		}
	}()
}

// invoke isolates handler panics so one bad handler cannot take down
// the publisher's goroutine.
func (b *InMemoryEventBus) invoke(event shared.Event, h shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(event)
}

// Close stops accepting events and drains in-flight handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}
