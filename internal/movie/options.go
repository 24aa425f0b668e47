package movie

import (
	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/logging"
	"github.com/smazurov/ddsmovie/internal/stream"
)

// Defaults for a new movie.
const (
	DefaultExtension = ".DDS"
	DefaultFrameRate = 29.97
)

type config struct {
	extension  string
	frameRate  float64
	playRate   float64
	loop       bool
	backend    Backend
	logger     logging.Logger
	reader     stream.Reader
	bus        *events.Bus
	metrics    bool
	engineOpts []stream.Option
}

// Option configures a Movie.
type Option func(*config)

// WithExtension sets the case-sensitive file extension of frame files.
func WithExtension(ext string) Option {
	return func(c *config) {
		c.extension = ext
	}
}

// WithFrameRate sets the nominal frame rate in frames per second.
func WithFrameRate(fps float64) Option {
	return func(c *config) {
		c.frameRate = fps
	}
}

// WithPlayRate sets the initial play rate.
func WithPlayRate(rate float64) Option {
	return func(c *config) {
		c.playRate = rate
	}
}

// WithLoop sets whether playback wraps at either end.
func WithLoop(loop bool) Option {
	return func(c *config) {
		c.loop = loop
	}
}

// WithBackend sets the graphics backend decoded frames are uploaded to.
func WithBackend(b Backend) Option {
	return func(c *config) {
		if b != nil {
			c.backend = b
		}
	}
}

// WithLogger sets the diagnostics sink. Decode warnings are written here.
func WithLogger(logger logging.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReader sets how frame files are loaded.
func WithReader(r stream.Reader) Option {
	return func(c *config) {
		if r != nil {
			c.reader = r
		}
	}
}

// WithEventBus publishes playback events to bus.
func WithEventBus(bus *events.Bus) Option {
	return func(c *config) {
		c.bus = bus
	}
}

// WithMetrics enables Prometheus metrics for the session.
func WithMetrics(enabled bool) Option {
	return func(c *config) {
		c.metrics = enabled
	}
}

// WithEngineOptions passes extra options to the streaming engine. They are
// applied after the movie's own settings.
func WithEngineOptions(opts ...stream.Option) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}
