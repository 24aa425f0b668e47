package movie

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/frameindex"
	"github.com/smazurov/ddsmovie/internal/render"
	"github.com/smazurov/ddsmovie/internal/stream"
	"github.com/smazurov/ddsmovie/pkg/dds"
)

// recordingLogger captures warnings written to the diagnostics sink.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFrame writes a solid-color RGBA frame whose width encodes its index.
func writeFrame(t *testing.T, dir, name string, width int) {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, width, 4))
	for x := range width {
		for y := range 4 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), A: 255})
		}
	}
	payload, err := dds.Compress(src, dds.FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	spec := dds.EncodeSpec{Width: uint32(width), Height: 4, Format: dds.FormatRGBA}
	if err := dds.Encode(&buf, spec, payload); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// frameDir creates n frames named 000.DDS.. with widths 1..n.
func frameDir(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := range n {
		writeFrame(t, dir, fmt.Sprintf("%03d.DDS", i), i+1)
	}
	return dir
}

func openMovie(t *testing.T, dir string, opts ...Option) *Movie {
	t.Helper()
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithEngineOptions(stream.WithIdleInterval(10 * time.Millisecond)),
	}, opts...)
	m, err := New(dir, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func waitForUpdate(t *testing.T, m *Movie) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Update() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("no frame was uploaded")
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), WithLogger(quietLogger()))
	var loadErr *frameindex.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("New() error = %v, want *frameindex.LoadError", err)
	}
}

func TestNewRejectsFrameRate(t *testing.T) {
	for _, fps := range []float64{0, -30} {
		if _, err := New(t.TempDir(), WithFrameRate(fps)); !errors.Is(err, ErrInvalidFrameRate) {
			t.Errorf("New(fps=%v) error = %v, want ErrInvalidFrameRate", fps, err)
		}
	}
}

func TestEmptyDirectory(t *testing.T) {
	backend := &render.Null{}
	m := openMovie(t, t.TempDir(), WithBackend(backend))

	time.Sleep(30 * time.Millisecond)
	if m.Update() {
		t.Error("Update() on an empty movie returned true")
	}
	if err := m.Draw(); err != nil {
		t.Errorf("Draw() error = %v", err)
	}
	if m.NumFrames() != 0 || m.Duration() != 0 || m.Image() != nil {
		t.Errorf("NumFrames() = %d, Duration() = %v, Image() = %v", m.NumFrames(), m.Duration(), m.Image())
	}
	m.SeekToEnd()
	if m.CurrentFrame() != 0 {
		t.Errorf("CurrentFrame() = %d after SeekToEnd on empty movie", m.CurrentFrame())
	}
	if uploads, draws := backend.Stats(); uploads != 0 || draws != 0 {
		t.Errorf("backend Stats() = %d, %d", uploads, draws)
	}
}

func TestDefaults(t *testing.T) {
	m := openMovie(t, frameDir(t, 1))
	if m.FrameRate() != DefaultFrameRate || m.PlayRate() != 1 || !m.Loop() {
		t.Errorf("FrameRate() = %v, PlayRate() = %v, Loop() = %v", m.FrameRate(), m.PlayRate(), m.Loop())
	}
	if m.Extension() != DefaultExtension {
		t.Errorf("Extension() = %q", m.Extension())
	}
	if m.ID() == "" {
		t.Error("ID() is empty")
	}
}

func TestUpdateUploadsAndSeeks(t *testing.T) {
	backend := &render.Null{}
	m := openMovie(t, frameDir(t, 5), WithPlayRate(0), WithBackend(backend))

	waitForUpdate(t, m)
	if img := m.Image(); img == nil || img.Width != 1 {
		t.Fatalf("Image() = %+v, want first frame", img)
	}
	if err := m.Draw(); err != nil {
		t.Fatal(err)
	}

	m.SeekToFrame(3)
	waitForUpdate(t, m)
	if img := m.Image(); img.Width != 4 {
		t.Errorf("Image().Width = %d after seek, want 4", img.Width)
	}
	if m.ImageFrame() != 3 {
		t.Errorf("ImageFrame() = %d, want 3", m.ImageFrame())
	}
	if backend.Last() != m.Image() {
		t.Error("backend did not receive the decoded image")
	}

	status := m.Status()
	if status.Decoded != 2 || status.Image == nil || status.Image.Frame != 3 {
		t.Errorf("Status() = %+v", status)
	}
	if status.Image.Format != dds.FormatRGBA || len(status.Image.Surfaces) != 1 {
		t.Errorf("Status().Image = %+v", status.Image)
	}
}

func TestBadFrameKeepsPreviousImage(t *testing.T) {
	dir := frameDir(t, 1)
	if err := os.WriteFile(filepath.Join(dir, "001.DDS"), []byte("not a dds file at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := events.New()
	failures := make(chan events.DecodeFailedEvent, 1)
	unsub := bus.Subscribe(func(e events.DecodeFailedEvent) { failures <- e })
	defer unsub()

	logger := &recordingLogger{}
	m := openMovie(t, dir, WithPlayRate(0), WithEventBus(bus), WithLogger(logger))

	waitForUpdate(t, m)
	good := m.Image()

	m.SeekToFrame(1)
	deadline := time.Now().Add(2 * time.Second)
	for m.Status().DecodeErrors == 0 && time.Now().Before(deadline) {
		if m.Update() {
			t.Fatal("Update() accepted a bad frame")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if m.Image() != good {
		t.Error("previous image was not kept after a decode failure")
	}
	if warns := logger.warnings(); len(warns) == 0 {
		t.Error("no warning was written to the diagnostics sink")
	}

	select {
	case ev := <-failures:
		if ev.Code != dds.CodeBadMagic || ev.Frame != 1 {
			t.Errorf("DecodeFailedEvent = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no DecodeFailedEvent published")
	}

	if m.Status().LastError == "" {
		t.Error("Status().LastError is empty")
	}
}

func TestSeekToTimeAndDuration(t *testing.T) {
	m := openMovie(t, frameDir(t, 20), WithFrameRate(10), WithPlayRate(0))

	if got := m.Duration(); got != 2 {
		t.Errorf("Duration() = %v, want 2", got)
	}

	tests := []struct {
		seconds float64
		frame   int
	}{
		{1.05, 10},
		{0, 0},
		{-3, 0},
		{0.19, 1},
		{100, 19},
	}
	for _, tt := range tests {
		m.SeekToTime(tt.seconds)
		if got := m.CurrentFrame(); got != tt.frame {
			t.Errorf("SeekToTime(%v) -> frame %d, want %d", tt.seconds, got, tt.frame)
		}
	}

	m.SeekToFrame(10)
	if got := m.CurrentTime(); got != 1 {
		t.Errorf("CurrentTime() = %v, want 1", got)
	}

	m.SeekToEnd()
	if got := m.CurrentFrame(); got != 19 {
		t.Errorf("SeekToEnd() -> %d, want 19", got)
	}
	m.SeekToStart()
	if got := m.CurrentFrame(); got != 0 {
		t.Errorf("SeekToStart() -> %d, want 0", got)
	}
}

func TestControlsPublishEvents(t *testing.T) {
	bus := events.New()
	rates := make(chan events.PlayRateChangedEvent, 4)
	loops := make(chan events.LoopChangedEvent, 4)
	seeks := make(chan events.SeekEvent, 4)
	defer bus.Subscribe(func(e events.PlayRateChangedEvent) { rates <- e })()
	defer bus.Subscribe(func(e events.LoopChangedEvent) { loops <- e })()
	defer bus.Subscribe(func(e events.SeekEvent) { seeks <- e })()

	m := openMovie(t, frameDir(t, 4), WithPlayRate(0), WithEventBus(bus), WithMetrics(true))

	m.SetPlayRate(0)
	m.SetPlayRate(-2)
	m.SetLoop(false)
	m.SeekToFrame(99)

	select {
	case ev := <-rates:
		if ev.Rate != -2 {
			t.Errorf("PlayRateChangedEvent.Rate = %v, want -2", ev.Rate)
		}
	case <-time.After(time.Second):
		t.Fatal("no PlayRateChangedEvent")
	}
	select {
	case ev := <-loops:
		if ev.Loop {
			t.Error("LoopChangedEvent.Loop = true, want false")
		}
	case <-time.After(time.Second):
		t.Fatal("no LoopChangedEvent")
	}
	select {
	case ev := <-seeks:
		if ev.Frame != 3 {
			t.Errorf("SeekEvent.Frame = %d, want clamped 3", ev.Frame)
		}
	case <-time.After(time.Second):
		t.Fatal("no SeekEvent")
	}

	select {
	case ev := <-rates:
		t.Errorf("unchanged rate published %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestReloadAndReplace(t *testing.T) {
	dir := frameDir(t, 2)
	bus := events.New()
	reloads := make(chan events.IndexReloadedEvent, 2)
	defer bus.Subscribe(func(e events.IndexReloadedEvent) { reloads <- e })()

	m := openMovie(t, dir, WithPlayRate(0), WithEventBus(bus))

	writeFrame(t, dir, "002.DDS", 3)
	writeFrame(t, dir, "003.DDS", 4)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if m.NumFrames() != 4 {
		t.Errorf("NumFrames() = %d, want 4", m.NumFrames())
	}
	select {
	case ev := <-reloads:
		if ev.Frames != 4 {
			t.Errorf("IndexReloadedEvent.Frames = %d, want 4", ev.Frames)
		}
	case <-time.After(time.Second):
		t.Fatal("no IndexReloadedEvent")
	}

	m.SeekToFrame(3)
	m.ReplaceFrames(m.Frames()[:1])
	m.SetPlayRate(1)
	deadline := time.Now().Add(2 * time.Second)
	for m.CurrentFrame() != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if m.CurrentFrame() != 0 {
		t.Errorf("CurrentFrame() = %d after shrinking to one frame", m.CurrentFrame())
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err == nil {
		t.Error("Reload() of a removed directory should fail")
	}
	if m.NumFrames() != 1 {
		t.Errorf("failed reload changed the index to %d frames", m.NumFrames())
	}
}

func TestReadErrorsAreReported(t *testing.T) {
	bus := events.New()
	readFailures := make(chan events.ReadFailedEvent, 8)
	defer bus.Subscribe(func(e events.ReadFailedEvent) {
		select {
		case readFailures <- e:
		default:
		}
	})()

	reader := stream.ReaderFunc(func(string) ([]byte, error) {
		return nil, errors.New("disk on fire")
	})
	m := openMovie(t, frameDir(t, 2), WithReader(reader), WithEventBus(bus), WithFrameRate(200))

	select {
	case ev := <-readFailures:
		if ev.Error != "disk on fire" {
			t.Errorf("ReadFailedEvent.Error = %q", ev.Error)
		}
	case <-time.After(time.Second):
		t.Fatal("no ReadFailedEvent")
	}
	if m.Status().State != string(stream.StateRunning) {
		t.Errorf("engine state = %q after read errors", m.Status().State)
	}
}

func TestRunUpdatesAndDraws(t *testing.T) {
	backend := render.NewSoftware()
	m := openMovie(t, frameDir(t, 3), WithFrameRate(100), WithBackend(backend), WithMetrics(true))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := m.Run(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	uploads, draws := backend.Stats()
	if uploads == 0 || draws == 0 {
		t.Errorf("backend Stats() = %d, %d; want uploads and draws", uploads, draws)
	}
	if _, ok := backend.Current(); !ok {
		t.Error("software backend has no frame")
	}

	if err := m.Run(context.Background(), 0); err == nil {
		t.Error("Run() with zero tick should fail")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m, err := New(frameDir(t, 2), WithLogger(quietLogger()), WithMetrics(true))
	if err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()
	if got := m.Status().State; got != string(stream.StateStopped) {
		t.Errorf("State = %q after Close, want stopped", got)
	}
}
