package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(SeekEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the static type, so unwrap the interface first
	switch e := ev.(type) {
	case FrameDecodedEvent:
		event.Publish(b.dispatcher, e)
	case DecodeFailedEvent:
		event.Publish(b.dispatcher, e)
	case ReadFailedEvent:
		event.Publish(b.dispatcher, e)
	case SeekEvent:
		event.Publish(b.dispatcher, e)
	case PlayRateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LoopChangedEvent:
		event.Publish(b.dispatcher, e)
	case IndexReloadedEvent:
		event.Publish(b.dispatcher, e)
	case EngineStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e SeekEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(FrameDecodedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DecodeFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReadFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SeekEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PlayRateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LoopChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndexReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EngineStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
