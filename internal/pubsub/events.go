// Package pubsub provides a generic publish/subscribe event system used to
// fan engine and log events out to hosts.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// IndexRebuiltEvent is published after the position index was recomputed.
	IndexRebuiltEvent EventType = "index_rebuilt"
	// ScrollStateEvent is published when the engine toggles between idle and scrolling.
	ScrollStateEvent EventType = "scroll_state"
	// LoadingEvent is published when the store's loading flag flips.
	LoadingEvent EventType = "loading"
	// ScrollAdjustedEvent is published when scroll anchoring moved the scroll offset.
	ScrollAdjustedEvent EventType = "scroll_adjusted"
	// LogEvent carries a formatted log line.
	LogEvent EventType = "log"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
