// Package pubsub provides a generic publish/subscribe event system used to fan
// out invocation outcomes and log lines to in-process listeners.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// SucceededEvent marks an action invocation that returned a result.
	SucceededEvent EventType = "succeeded"
	// FailedEvent marks an action invocation that returned an error.
	FailedEvent EventType = "failed"
	// LoggedEvent carries a formatted log line.
	LoggedEvent EventType = "logged"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events, optionally
// restricted to some event types.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// Forward subscribes to sub and calls fn for every event of the given types
// until ctx is cancelled or the subscription channel is closed. It blocks.
func Forward[T any](ctx context.Context, sub Subscriber[T], fn func(Event[T]), types ...EventType) {
	ch := sub.Subscribe(ctx, types...)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			fn(event)
		}
	}
}
