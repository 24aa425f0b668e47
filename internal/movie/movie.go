// Package movie plays a directory of DDS frames as a movie.
//
// A Movie owns a streaming engine that reads frame files in the background.
// The caller drives the consumer side from its own loop: Update takes the
// newest frame, decodes it and uploads it to the Backend, and Draw presents
// whatever was uploaded last. A frame that fails to decode is reported and
// skipped, and the previous image stays current.
package movie

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/frameindex"
	"github.com/smazurov/ddsmovie/internal/logging"
	"github.com/smazurov/ddsmovie/internal/metrics"
	"github.com/smazurov/ddsmovie/internal/render"
	"github.com/smazurov/ddsmovie/internal/stream"
	"github.com/smazurov/ddsmovie/pkg/dds"
)

// CodeUploadFailed is reported when the backend rejects a decoded frame.
const CodeUploadFailed = "UPLOAD_FAILED"

// ErrInvalidFrameRate is returned by New for a non-positive frame rate.
var ErrInvalidFrameRate = errors.New("frame rate must be positive")

// Backend receives decoded frames. Upload is called from Update with a
// freshly decoded image; Draw presents the last uploaded one.
type Backend interface {
	Upload(img *dds.Image) error
	Draw() error
}

// Movie is one playback session.
type Movie struct {
	id        string
	index     *frameindex.Index
	engine    *stream.Engine
	backend   Backend
	logger    logging.Logger
	bus       *events.Bus
	metrics   bool
	frameRate float64
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu         sync.RWMutex
	image      *dds.Image
	imageFrame int
	imagePath  string
	lastError  string

	decoded      atomic.Uint64
	decodeErrors atomic.Uint64
	readErrors   atomic.Uint64
}

// New indexes dir and starts playback. A missing or unreadable directory
// returns a *frameindex.LoadError; an empty one is a valid zero-frame movie.
func New(dir string, opts ...Option) (*Movie, error) {
	cfg := config{
		extension: DefaultExtension,
		frameRate: DefaultFrameRate,
		playRate:  1,
		loop:      true,
		backend:   &render.Null{},
		reader:    stream.OSReader,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.frameRate <= 0 || math.IsNaN(cfg.frameRate) || math.IsInf(cfg.frameRate, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameRate, cfg.frameRate)
	}

	index, err := frameindex.New(dir, cfg.extension)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	// Without an injected sink each layer logs under its own module
	engineLogger := cfg.logger
	if cfg.logger == nil {
		cfg.logger = logging.GetLogger("movie").With("session_id", id)
		engineLogger = logging.GetLogger("stream").With("session_id", id)
	}

	m := &Movie{
		id:         id,
		index:      index,
		backend:    cfg.backend,
		logger:     cfg.logger,
		bus:        cfg.bus,
		metrics:    cfg.metrics,
		frameRate:  cfg.frameRate,
		imageFrame: -1,
	}

	engineOpts := []stream.Option{
		stream.WithLogger(engineLogger),
		stream.WithLoop(cfg.loop),
		stream.WithPlayRate(cfg.playRate),
		stream.WithHooks(stream.Hooks{
			OnPublish:     m.onPublish,
			OnReadError:   m.onReadError,
			OnStateChange: m.onStateChange,
		}),
	}
	engineOpts = append(engineOpts, cfg.engineOpts...)
	m.engine = stream.New(index, cfg.reader, cfg.frameRate, engineOpts...)

	if m.metrics {
		metrics.SetIndexedFrames(m.id, index.Len())
		metrics.SetPlayRate(m.id, m.engine.PlayRate())
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	if err := m.engine.Start(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	m.logger.Info("Movie opened", "directory", dir, "frames", index.Len(), "fps", cfg.frameRate)
	return m, nil
}

// ID returns the session identifier.
func (m *Movie) ID() string { return m.id }

// Directory returns the frame directory.
func (m *Movie) Directory() string { return m.index.Dir() }

// Extension returns the frame file extension.
func (m *Movie) Extension() string { return m.index.Ext() }

// Update consumes the newest published frame, if any, and uploads it. It
// never blocks on the engine and reports whether a new image was uploaded.
func (m *Movie) Update() bool {
	frame, ok := m.engine.Take()
	if !ok {
		return false
	}

	start := time.Now()
	img, err := dds.Decode(frame.Data)
	if err == nil {
		if uploadErr := m.backend.Upload(img); uploadErr != nil {
			err = fmt.Errorf("upload: %w", uploadErr)
		}
	}
	if err != nil {
		m.reportDecodeError(frame, err)
		return false
	}

	m.mu.Lock()
	m.image = img
	m.imageFrame = frame.Index
	m.imagePath = frame.Path
	m.mu.Unlock()

	m.decoded.Add(1)
	if m.metrics {
		metrics.ObserveDecode(m.id, time.Since(start))
	}
	m.publish(events.FrameDecodedEvent{
		SessionID: m.id,
		Frame:     frame.Index,
		Path:      frame.Path,
		Width:     int(img.Width),
		Height:    int(img.Height),
		Format:    img.Format.String(),
		MipCount:  img.MipCount,
		Cubemap:   img.Cubemap,
		Timestamp: timestamp(),
	})
	return true
}

func (m *Movie) reportDecodeError(frame stream.Frame, err error) {
	code := CodeUploadFailed
	var decodeErr *dds.DecodeError
	if errors.As(err, &decodeErr) {
		code = decodeErr.Code
	}

	m.decodeErrors.Add(1)
	m.mu.Lock()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.logger.Warn("Failed to decode frame", "frame", frame.Index, "path", frame.Path, "code", code, "error", err)
	if m.metrics {
		metrics.IncDecodeErrors(m.id, code)
	}
	m.publish(events.DecodeFailedEvent{
		SessionID: m.id,
		Frame:     frame.Index,
		Path:      frame.Path,
		Code:      code,
		Error:     err.Error(),
		Timestamp: timestamp(),
	})
}

// Draw presents the current image. It does nothing before the first
// successful Update.
func (m *Movie) Draw() error {
	if m.Image() == nil {
		return nil
	}
	return m.backend.Draw()
}

// Image returns the last successfully decoded frame, or nil.
func (m *Movie) Image() *dds.Image {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.image
}

// ImageFrame returns the index of the frame Image came from, or -1.
func (m *Movie) ImageFrame() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.imageFrame
}

// SetPlayRate sets the play rate: 1 is normal, negative plays backward and
// 0 pauses.
func (m *Movie) SetPlayRate(rate float64) {
	prev := m.engine.PlayRate()
	m.engine.SetPlayRate(rate)
	next := m.engine.PlayRate()
	if next == prev {
		return
	}
	if m.metrics {
		metrics.SetPlayRate(m.id, next)
	}
	m.publish(events.PlayRateChangedEvent{SessionID: m.id, Rate: next, Timestamp: timestamp()})
}

// PlayRate returns the play rate.
func (m *Movie) PlayRate() float64 { return m.engine.PlayRate() }

// SeekToFrame jumps to frame n, clamped to the movie.
func (m *Movie) SeekToFrame(n int) {
	m.engine.SeekToFrame(n)
	m.afterSeek()
}

// SeekToTime jumps to the frame shown at seconds.
func (m *Movie) SeekToTime(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	frame := math.Floor(seconds * m.frameRate)
	if frame > float64(math.MaxInt32) {
		frame = float64(math.MaxInt32)
	}
	m.SeekToFrame(int(frame))
}

// SeekToStart jumps to the first frame.
func (m *Movie) SeekToStart() {
	m.SeekToFrame(0)
}

// SeekToEnd jumps to the last frame.
func (m *Movie) SeekToEnd() {
	m.engine.SeekToEnd()
	m.afterSeek()
}

func (m *Movie) afterSeek() {
	frame := m.engine.CurrentFrame()
	if m.metrics {
		metrics.SetCurrentFrame(m.id, frame)
	}
	m.publish(events.SeekEvent{SessionID: m.id, Frame: frame, Timestamp: timestamp()})
}

// SetLoop enables or disables wrapping.
func (m *Movie) SetLoop(loop bool) {
	if m.engine.Loop() == loop {
		return
	}
	m.engine.SetLoop(loop)
	m.publish(events.LoopChangedEvent{SessionID: m.id, Loop: loop, Timestamp: timestamp()})
}

// Loop reports whether playback wraps.
func (m *Movie) Loop() bool { return m.engine.Loop() }

// CurrentFrame returns the play head position.
func (m *Movie) CurrentFrame() int { return m.engine.CurrentFrame() }

// NumFrames returns the number of indexed frames.
func (m *Movie) NumFrames() int { return m.engine.NumFrames() }

// CurrentTime returns the play head position in seconds.
func (m *Movie) CurrentTime() float64 {
	return float64(m.CurrentFrame()) / m.frameRate
}

// Duration returns the movie length in seconds.
func (m *Movie) Duration() float64 {
	return float64(m.NumFrames()) / m.frameRate
}

// FrameRate returns the nominal frame rate.
func (m *Movie) FrameRate() float64 { return m.frameRate }

// AverageFPS returns the measured rate at which frames are being read.
func (m *Movie) AverageFPS() float64 { return m.engine.AverageFPS() }

// Frames returns the indexed frame paths.
func (m *Movie) Frames() []string { return m.index.Paths() }

// Reload rescans the frame directory. The current list stays in place when
// the scan fails.
func (m *Movie) Reload() error {
	if err := m.index.Rescan(); err != nil {
		m.logger.Warn("Failed to reload frames", "directory", m.index.Dir(), "error", err)
		return err
	}
	m.afterIndexChange()
	return nil
}

// ReplaceFrames installs an explicit frame list.
func (m *Movie) ReplaceFrames(paths []string) {
	m.index.Replace(paths)
	m.afterIndexChange()
}

func (m *Movie) afterIndexChange() {
	n := m.index.Len()
	m.logger.Info("Frame index reloaded", "directory", m.index.Dir(), "frames", n)
	if m.metrics {
		metrics.SetIndexedFrames(m.id, n)
	}
	m.publish(events.IndexReloadedEvent{
		SessionID: m.id,
		Directory: m.index.Dir(),
		Frames:    n,
		Timestamp: timestamp(),
	})
}

// Run calls Update and Draw every tick until ctx is done.
func (m *Movie) Run(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		return fmt.Errorf("invalid tick interval %v", tick)
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Update()
			if err := m.Draw(); err != nil {
				m.logger.Warn("Draw failed", "error", err)
			}
			if m.metrics {
				metrics.SetAverageFPS(m.id, m.AverageFPS())
				metrics.SetCurrentFrame(m.id, m.CurrentFrame())
			}
		}
	}
}

// Close stops the engine. It is safe to call more than once.
func (m *Movie) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.engine.Stop()
		if m.metrics {
			metrics.DeleteSessionMetrics(m.id)
		}
		m.logger.Info("Movie closed")
	})
}

func (m *Movie) onPublish(_ stream.Frame, dropped bool) {
	if m.metrics {
		metrics.IncFramesPublished(m.id, dropped)
	}
}

func (m *Movie) onReadError(index int, path string, err error) {
	m.readErrors.Add(1)
	if m.metrics {
		metrics.IncReadErrors(m.id)
	}
	m.publish(events.ReadFailedEvent{
		SessionID: m.id,
		Frame:     index,
		Path:      path,
		Error:     err.Error(),
		Timestamp: timestamp(),
	})
}

func (m *Movie) onStateChange(oldState, newState stream.State) {
	m.publish(events.EngineStateChangedEvent{
		SessionID: m.id,
		OldState:  string(oldState),
		NewState:  string(newState),
		Timestamp: timestamp(),
	})
}

func (m *Movie) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}
