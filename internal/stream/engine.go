package stream

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/ddsmovie/internal/logging"
)

// ErrAlreadyStarted is returned by Start on an engine that is not idle.
var ErrAlreadyStarted = errors.New("stream: engine already started")

// Engine reads frames on a background goroutine and publishes the latest one.
type Engine struct {
	src            FrameSource
	reader         Reader
	frameRate      float64
	logger         logging.Logger
	hooks          Hooks
	idleInterval   time.Duration
	sampleInterval time.Duration

	rate    atomic.Uint64 // math.Float64bits
	loop    atomic.Bool
	current atomic.Int64
	avgFPS  atomic.Uint64 // math.Float64bits
	dropped atomic.Uint64

	// mu guards the slot and the seek bookkeeping. It is never held
	// across file I/O. unread is set whenever current moves and cleared
	// once the frame at current has been read. stepDir is the direction of
	// the advance that produced an unread head, 0 after a seek or clamp.
	mu         sync.Mutex
	slot       Frame
	fresh      bool
	generation uint64
	positioned bool
	unread     bool
	stepDir    int
	lastRead   int

	// Owned by the loop goroutine.
	sampleStart time.Time
	sampleCount int

	interrupt chan struct{}

	stateMu sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an idle engine over src. frameRate is the nominal rate in
// frames per second at play rate 1.
func New(src FrameSource, reader Reader, frameRate float64, opts ...Option) *Engine {
	if reader == nil {
		reader = OSReader
	}
	e := &Engine{
		src:            src,
		reader:         reader,
		frameRate:      frameRate,
		logger:         logging.GetLogger("stream"),
		idleInterval:   defaultIdleInterval,
		sampleInterval: defaultSampleInterval,
		positioned:     true,
		unread:         true,
		interrupt:      make(chan struct{}, 1),
		state:          StateIdle,
	}
	e.loop.Store(true)
	e.storeRate(1)

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the loop goroutine. The loop runs until Stop is called or
// ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.stateMu.Lock()
	if e.state != StateIdle {
		e.stateMu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateRunning
	e.stateMu.Unlock()

	e.logger.Debug("Engine state changed", "from", StateIdle, "to", StateRunning)
	if e.hooks.OnStateChange != nil {
		e.hooks.OnStateChange(StateIdle, StateRunning)
	}
	go e.run(loopCtx)
	return nil
}

// Stop cancels the loop and waits for it to exit. Safe to call more than once.
func (e *Engine) Stop() {
	e.stateMu.Lock()
	switch e.state {
	case StateIdle:
		e.stateMu.Unlock()
		e.setState(StateStopped)
		return
	case StateStopped:
		e.stateMu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.stateMu.Unlock()

	if e.State() == StateRunning {
		e.setState(StateStopping)
	}
	cancel()
	<-done
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

func (e *Engine) setState(next State) {
	e.stateMu.Lock()
	prev := e.state
	if prev == next || prev == StateStopped {
		e.stateMu.Unlock()
		return
	}
	e.state = next
	e.stateMu.Unlock()

	e.logger.Debug("Engine state changed", "from", prev, "to", next)
	if e.hooks.OnStateChange != nil {
		e.hooks.OnStateChange(prev, next)
	}
}

// SeekToFrame positions the engine at frame n, clamped to the valid range.
// The next frame returned by Take is n.
func (e *Engine) SeekToFrame(n int) {
	n = clamp(n, e.src.Len())

	e.mu.Lock()
	e.current.Store(int64(n))
	e.positioned = true
	e.unread = true
	e.stepDir = 0
	e.generation++
	e.fresh = false
	e.slot = Frame{}
	e.mu.Unlock()

	e.signal()
}

// SeekToEnd positions the engine at the last frame.
func (e *Engine) SeekToEnd() {
	e.SeekToFrame(e.src.Len() - 1)
}

// SetPlayRate changes the play rate. Negative rates play backward, zero
// pauses. Non-finite values are ignored.
func (e *Engine) SetPlayRate(rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		e.logger.Warn("Ignoring non-finite play rate", "rate", rate)
		return
	}
	prev := math.Float64frombits(e.rate.Swap(math.Float64bits(rate)))
	if prev != rate {
		e.signal()
	}
}

func (e *Engine) storeRate(rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return
	}
	e.rate.Store(math.Float64bits(rate))
}

// PlayRate returns the current play rate.
func (e *Engine) PlayRate() float64 {
	return math.Float64frombits(e.rate.Load())
}

// SetLoop enables or disables wrapping at either end.
func (e *Engine) SetLoop(loop bool) {
	if e.loop.Swap(loop) != loop {
		e.signal()
	}
}

// Loop reports whether playback wraps.
func (e *Engine) Loop() bool {
	return e.loop.Load()
}

// CurrentFrame returns the position of the play head: the frame the engine
// reads next, or the last one read when held at an end. A pause keeps the
// head where it is, so resuming reads that frame first.
func (e *Engine) CurrentFrame() int {
	return int(e.current.Load())
}

// NumFrames returns the size of the frame source.
func (e *Engine) NumFrames() int {
	return e.src.Len()
}

// FrameRate returns the nominal frame rate.
func (e *Engine) FrameRate() float64 {
	return e.frameRate
}

// AverageFPS returns the measured publish rate over the last sample window.
func (e *Engine) AverageFPS() float64 {
	return math.Float64frombits(e.avgFPS.Load())
}

// Dropped returns how many published frames were overwritten before Take.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Take hands the latest unconsumed frame to the caller. The caller owns
// the returned Data.
func (e *Engine) Take() (Frame, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.fresh {
		return Frame{}, false
	}
	f := e.slot
	e.slot = Frame{}
	e.fresh = false
	return f, true
}

// Fresh reports whether an unconsumed frame is waiting.
func (e *Engine) Fresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fresh
}

// signal wakes the loop. Pending signals coalesce.
func (e *Engine) signal() {
	select {
	case e.interrupt <- struct{}{}:
	default:
	}
}

func (e *Engine) run(ctx context.Context) {
	defer func() {
		e.setState(StateStopped)
		close(e.done)
	}()

	e.logger.Info("Engine started", "frames", e.src.Len(), "fps", e.frameRate, "rate", e.PlayRate())
	e.sampleStart = time.Now()

	for {
		start := time.Now()
		e.step()
		e.sample(time.Now())

		if !e.sleep(ctx, start.Add(e.interval())) {
			e.logger.Info("Engine stopped", "dropped", e.Dropped())
			return
		}
	}
}

// step performs one read-publish-advance iteration.
func (e *Engine) step() {
	n := e.src.Len()
	rate := e.PlayRate()
	loop := e.Loop()

	e.mu.Lock()
	cur := int(e.current.Load())
	if c := clamp(cur, n); c != cur {
		cur = c
		e.current.Store(int64(cur))
		e.unread = true
		e.stepDir = 0
	}
	if dir := direction(rate); !e.positioned && e.unread && e.stepDir != 0 && dir != 0 && dir != e.stepDir {
		// The head was advanced the other way; step from the last frame read.
		cur = Next(e.lastRead, n, rate, loop)
		e.current.Store(int64(cur))
		e.stepDir = dir
		if cur == e.lastRead {
			e.unread = false
			e.stepDir = 0
		}
	}
	gen := e.generation
	needRead := n > 0 && (e.positioned || (rate != 0 && e.unread))
	e.mu.Unlock()

	if n == 0 {
		return
	}

	var (
		frame   Frame
		readErr error
		path    string
	)
	if needRead {
		var ok bool
		path, ok = e.src.Path(cur)
		if !ok {
			return
		}
		data, err := e.reader.ReadFile(path)
		if err != nil {
			readErr = err
		} else {
			frame = Frame{Index: cur, Path: path, Data: data, ReadAt: time.Now()}
		}
	}

	e.mu.Lock()
	if e.generation != gen {
		// A seek landed during the read. Its target is read next.
		e.mu.Unlock()
		return
	}
	published, dropped := false, false
	if needRead && readErr == nil {
		dropped = e.fresh
		e.slot = frame
		e.fresh = true
		e.sampleCount++
		published = true
		if dropped {
			e.dropped.Add(1)
		}
	}
	e.positioned = false
	next := Next(cur, n, rate, loop)
	if needRead {
		// A failed read also consumes the frame.
		e.lastRead = cur
	}
	if needRead || next != cur {
		e.unread = next != cur
		e.stepDir = 0
		if e.unread {
			e.stepDir = direction(rate)
		}
	}
	e.current.Store(int64(next))
	e.mu.Unlock()

	if readErr != nil {
		e.logger.Warn("Failed to read frame", "index", cur, "path", path, "error", readErr)
		if e.hooks.OnReadError != nil {
			e.hooks.OnReadError(cur, path, readErr)
		}
	}
	if published && e.hooks.OnPublish != nil {
		e.hooks.OnPublish(frame, dropped)
	}
}

// interval returns the time between iterations at the current rate,
// capped at maxInterval.
func (e *Engine) interval() time.Duration {
	rate := math.Abs(e.PlayRate())
	if rate == 0 || e.frameRate <= 0 || e.src.Len() == 0 {
		return e.idleInterval
	}
	ns := float64(time.Second) / (rate * e.frameRate)
	if ns >= float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(ns)
}

// sample updates AverageFPS once per sample window.
func (e *Engine) sample(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := now.Sub(e.sampleStart)
	if elapsed < e.sampleInterval {
		return
	}
	fps := float64(e.sampleCount) / elapsed.Seconds()
	e.avgFPS.Store(math.Float64bits(fps))
	e.sampleCount = 0
	e.sampleStart = now
}

// sleep waits until deadline, an interrupt, or cancellation. It returns
// false when ctx is done.
func (e *Engine) sleep(ctx context.Context, deadline time.Time) bool {
	d := time.Until(deadline)
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-e.interrupt:
		return true
	case <-timer.C:
		return true
	}
}
