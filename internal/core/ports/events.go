// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/pos-engine/internal/core/domain"
)

// EventHandler reacts to one engine event.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventPublisher delivers engine events to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event)
}

// EventSubscriber registers handlers for an event type.
type EventSubscriber interface {
	Subscribe(eventType domain.EventType, handler EventHandler) (unsubscribe func())
}
