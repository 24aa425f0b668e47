package stream

import (
	"time"

	"github.com/smazurov/ddsmovie/internal/logging"
)

const (
	defaultIdleInterval   = time.Second
	defaultSampleInterval = time.Second
	// maxInterval bounds the sleep at near-zero play rates.
	maxInterval = time.Hour
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLoop sets whether playback wraps at either end.
func WithLoop(loop bool) Option {
	return func(e *Engine) {
		e.loop.Store(loop)
	}
}

// WithPlayRate sets the initial play rate.
func WithPlayRate(rate float64) Option {
	return func(e *Engine) {
		e.storeRate(rate)
	}
}

// WithIdleInterval sets how long the loop sleeps between checks while paused
// or empty.
func WithIdleInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.idleInterval = d
		}
	}
}

// WithSampleInterval sets the window over which AverageFPS is measured.
func WithSampleInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sampleInterval = d
		}
	}
}

// WithHooks installs engine callbacks.
func WithHooks(h Hooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}
