package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan SeekEvent, 1)

	unsub := bus.Subscribe(func(e SeekEvent) {
		received <- e
	})
	defer unsub()

	event := SeekEvent{
		SessionID: "session-1",
		Frame:     120,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Frame != event.Frame {
		t.Errorf("Expected frame %d, got %d", event.Frame, got.Frame)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan IndexReloadedEvent, 1)
	received2 := make(chan IndexReloadedEvent, 1)

	unsub1 := bus.Subscribe(func(e IndexReloadedEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e IndexReloadedEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(IndexReloadedEvent{Directory: "/srv/frames", Frames: 3})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan DecodeFailedEvent, 1)

	unsub := bus.Subscribe(func(e DecodeFailedEvent) {
		received <- e
	})

	bus.Publish(DecodeFailedEvent{Frame: 1})
	<-received

	unsub()

	bus.Publish(DecodeFailedEvent{Frame: 2})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	seekReceived := make(chan bool, 1)
	rateReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ SeekEvent) {
		seekReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ PlayRateChangedEvent) {
		rateReceived <- true
	})
	defer unsub2()

	bus.Publish(SeekEvent{Frame: 3})
	<-seekReceived

	select {
	case <-rateReceived:
		t.Fatal("Rate subscriber should NOT have received SeekEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(PlayRateChangedEvent{Rate: 2})
	<-rateReceived

	select {
	case <-seekReceived:
		t.Fatal("Seek subscriber should NOT have received PlayRateChangedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ FrameDecodedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for i := range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range eventsPerGoroutine {
				bus.Publish(FrameDecodedEvent{
					Frame:     i*eventsPerGoroutine + j,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_UnknownHandlerIsNoop(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestSubscribePlayback(t *testing.T) {
	bus := New()
	ch := make(chan any, 16)

	unsub := SubscribePlayback(bus, ch)
	defer unsub()

	published := []Event{
		FrameDecodedEvent{Frame: 1},
		DecodeFailedEvent{Frame: 2},
		ReadFailedEvent{Frame: 3},
		SeekEvent{Frame: 4},
		PlayRateChangedEvent{Rate: 0.5},
		LoopChangedEvent{Loop: true},
		IndexReloadedEvent{Frames: 9},
		EngineStateChangedEvent{NewState: "running"},
	}
	for _, ev := range published {
		bus.Publish(ev)
	}

	seen := make(map[uint32]bool)
	for range published {
		select {
		case ev := <-ch:
			seen[ev.(Event).Type()] = true
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d events", len(seen))
		}
	}
	for _, ev := range published {
		if !seen[ev.Type()] {
			t.Errorf("event %T was not bridged", ev)
		}
	}

	// log entries have their own stream
	bus.Publish(LogEntryEvent{Message: "hello"})
	select {
	case ev := <-ch:
		t.Errorf("unexpected event %T on playback channel", ev)
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[SeekEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(SeekEvent{Frame: 1})
		done <- true
	}()

	<-done
}

func TestEventJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(FrameDecodedEvent{SessionID: "s", Frame: 7, Format: "BC3", MipCount: 4})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	for _, key := range []string{"session_id", "frame", "format", "mip_count", "cubemap"} {
		if _, ok := result[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
}
