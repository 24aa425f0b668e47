package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels.
// Huma's SSE handler consumes events from a channel-based select loop.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			// Drop event if channel is full (non-blocking)
		}
	})
}

// SubscribePlayback bridges every playback event type to ch and returns a
// single unsubscribe function.
func SubscribePlayback(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[FrameDecodedEvent](bus, ch),
		SubscribeToChannel[DecodeFailedEvent](bus, ch),
		SubscribeToChannel[ReadFailedEvent](bus, ch),
		SubscribeToChannel[SeekEvent](bus, ch),
		SubscribeToChannel[PlayRateChangedEvent](bus, ch),
		SubscribeToChannel[LoopChangedEvent](bus, ch),
		SubscribeToChannel[IndexReloadedEvent](bus, ch),
		SubscribeToChannel[EngineStateChangedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
