package stream

import (
	"os"
	"time"
)

// State represents the lifecycle state of an Engine.
type State string

// Engine states.
const (
	StateIdle     State = "idle"     // Constructed, not started
	StateRunning  State = "running"  // Loop goroutine active
	StateStopping State = "stopping" // Stop requested, waiting for the loop
	StateStopped  State = "stopped"  // Loop exited
)

// FrameSource is the ordered list of frames the engine walks.
// frameindex.Index satisfies it.
type FrameSource interface {
	Len() int
	Path(n int) (string, bool)
}

// Reader loads the bytes of one frame file.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(path string) ([]byte, error)

// ReadFile calls f(path).
func (f ReaderFunc) ReadFile(path string) ([]byte, error) {
	return f(path)
}

// OSReader reads frames from the local filesystem.
var OSReader Reader = ReaderFunc(os.ReadFile)

// Frame is one published buffer. Data is owned by whoever took the frame.
type Frame struct {
	Index  int
	Path   string
	Data   []byte
	ReadAt time.Time
}

// Hooks are optional callbacks invoked on the engine goroutine, outside
// the slot lock. They must not block.
type Hooks struct {
	// OnPublish is called after a frame lands in the slot.
	OnPublish func(f Frame, dropped bool)

	// OnReadError is called when a frame file cannot be read.
	OnReadError func(index int, path string, err error)

	// OnStateChange is called on every lifecycle transition.
	OnStateChange func(oldState, newState State)
}

// Next returns the frame that follows cur when playing at rate over n
// frames. Positive rates step forward, negative rates step backward and a
// zero rate holds. At either end the index wraps when loop is set and is
// clamped otherwise.
func Next(cur, n int, rate float64, loop bool) int {
	if n <= 0 {
		return 0
	}
	cur = clamp(cur, n)

	switch {
	case rate > 0:
		cur++
		if cur >= n {
			if loop {
				return 0
			}
			return n - 1
		}
	case rate < 0:
		cur--
		if cur < 0 {
			if loop {
				return n - 1
			}
			return 0
		}
	}
	return cur
}

func direction(rate float64) int {
	switch {
	case rate > 0:
		return 1
	case rate < 0:
		return -1
	}
	return 0
}

func clamp(n, count int) int {
	if count <= 0 || n < 0 {
		return 0
	}
	if n >= count {
		return count - 1
	}
	return n
}
