// internal/core/services/events.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

// EventBus is an in-process, synchronous event dispatcher. Handler errors
// and panics are logged and never reach the publisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[domain.EventType]map[int]ports.EventHandler
	nextID   int
	logger   *slog.Logger
}

var (
	_ ports.EventPublisher  = (*EventBus)(nil)
	_ ports.EventSubscriber = (*EventBus)(nil)
)

// NewEventBus creates an empty event bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[domain.EventType]map[int]ports.EventHandler),
		logger:   logger.With(slog.String("service", "events")),
	}
}

// Subscribe registers handler for eventType. The returned function removes it.
func (b *EventBus) Subscribe(eventType domain.EventType, handler ports.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]ports.EventHandler)
	}
	b.handlers[eventType][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
}

// Publish delivers event to every subscriber of its type, in subscription order.
func (b *EventBus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	subs := b.handlers[event.Type()]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	handlers := make([]ports.EventHandler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.dispatch(ctx, h, event); err != nil {
			b.logger.WarnContext(ctx, "event handler failed",
				slog.String("event", string(event.Type())),
				slog.String("error", err.Error()))
		}
	}
}

func (b *EventBus) dispatch(ctx context.Context, h ports.EventHandler, event domain.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, event)
}
