// Package events is the in-process event bus. Escalation publishes on it;
// the reminder worker and the operator mirrors consume from it.
package events

import (
	"context"
	"time"
)

// Event is anything published on the bus. EventName is the routing key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEventAt stamps an event with at; callers pass their own clock so
// tests stay deterministic.
func NewBaseEventAt(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Publisher is the sending half of the bus. Publish is fire-and-forget;
// PublishSync returns once every handler has run.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
}

// Subscriber is the receiving half. eventName must match Event.EventName.
type Subscriber interface {
	Subscribe(eventName string, handler Handler)
}

// Bus is both halves.
type Bus interface {
	Publisher
	Subscriber
}
