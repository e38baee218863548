package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) Payload() interface{}  { return e.Data }

type Handler func(ctx context.Context, event Event) error

// EventBus connects the ledger components inside one process. Delivery is
// synchronous: by the time PublishSync returns, every handler has seen the
// event, so an expense's budget alert is printed before the command exits.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
}

func NewEventBus(logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   logger.With("component", "events"),
	}
}

// Subscribe registers handler for eventType. Handlers run in registration order.
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	n := len(eb.handlers[eventType])
	eb.mu.Unlock()

	eb.logger.Debug("handler subscribed", "event_type", eventType, "handlers", n)
}

// HandlerCount reports how many handlers listen for eventType.
func (eb *EventBus) HandlerCount(eventType string) int {
	return len(eb.handlersFor(eventType))
}

// handlersFor returns a copy so handlers may subscribe or publish while the
// event is being delivered.
func (eb *EventBus) handlersFor(eventType string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return append([]Handler(nil), eb.handlers[eventType]...)
}

// PublishSync runs the handlers in order on the calling goroutine and stops at
// the first error.
func (eb *EventBus) PublishSync(ctx context.Context, event Event) error {
	handlers := eb.handlersFor(event.EventType())
	if len(handlers) == 0 {
		return nil
	}

	eb.logger.Debug("delivering event",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers", len(handlers))

	for i, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"handler", i,
				"error", err)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}
	return nil
}
