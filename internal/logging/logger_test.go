package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func resetState(t *testing.T) {
	t.Helper()
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"stream": "debug",
			"api":    "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"stream", true, true, true},
		{"api", false, false, true},
		{"movie", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	before := GetLogger("stream")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"stream": "debug"}})

	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("level var of cached logger should be updated by Initialize")
	}
}

func TestSetLevels(t *testing.T) {
	resetState(t)

	Initialize(Config{Level: "info", Format: "text"})
	logger := GetLogger("movie")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should start disabled")
	}

	SetLevels(Config{Level: "warn", Modules: map[string]string{"movie": "debug"}})

	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("movie override to debug not applied")
	}
	if GetLogger("api").Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("new logger should inherit the warn global level")
	}
	if globalConfig.Format != "text" {
		t.Errorf("format changed to %q", globalConfig.Format)
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetState(t)
	Initialize(Config{Level: "debug"})

	var mu sync.Mutex
	var seen []LogEntry
	SetLogCallback(func(e LogEntry) {
		mu.Lock()
		seen = append(seen, e)
		mu.Unlock()
	})

	logger := GetLogger("stream").With("session_id", "abc")
	logger.WithGroup("frame").Info("Frame published", "index", 4)
	logger.Debug("Sleeping")

	entries := GetBuffer().ReadAll()
	if len(entries) != 2 {
		t.Fatalf("buffer has %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Module != "stream" {
		t.Errorf("module = %q, want stream", first.Module)
	}
	if first.Level != "info" {
		t.Errorf("level = %q, want info", first.Level)
	}
	if first.Attributes["session_id"] != "abc" {
		t.Errorf("session_id attr = %v", first.Attributes["session_id"])
	}
	if first.Attributes["frame.index"] != int64(4) {
		t.Errorf("frame.index attr = %v (%T)", first.Attributes["frame.index"], first.Attributes["frame.index"])
	}
	if entries[1].Seq <= first.Seq {
		t.Errorf("seq not increasing: %d then %d", first.Seq, entries[1].Seq)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[1].Seq != entries[1].Seq {
		t.Errorf("callback saw %+v", seen)
	}
}

func TestRingBufferWraps(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: string(rune('a' + i))})
	}

	all := rb.ReadAll()
	var got []string
	for _, e := range all {
		got = append(got, e.Message)
	}
	if strings.Join(got, "") != "cde" {
		t.Errorf("ReadAll = %v, want [c d e]", got)
	}
	if all[0].Seq != 3 {
		t.Errorf("oldest seq = %d, want 3", all[0].Seq)
	}

	since := rb.ReadSince(4)
	if len(since) != 1 || since[0].Message != "e" {
		t.Errorf("ReadSince(4) = %+v", since)
	}
	if rb.ReadSince(5) != nil {
		t.Error("ReadSince(latest) should be empty")
	}
}

// failingHandler accepts every level and fails every record.
type failingHandler struct{ err error }

func (h failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h failingHandler) WithGroup(string) slog.Handler             { return h }

func TestFanoutHandler(t *testing.T) {
	var debugBuf, infoBuf bytes.Buffer
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	sinkErr := errors.New("journal unavailable")

	h := fanoutHandler{debugHandler, failingHandler{err: sinkErr}, infoHandler}
	logger := slog.New(h).With("module", "test").WithGroup("frame")

	logger.Debug("debug only message", "index", 4)
	if count := strings.Count(debugBuf.String(), "debug only message"); count != 1 {
		t.Errorf("debug sink got %d messages: %s", count, debugBuf.String())
	}
	if infoBuf.Len() != 0 {
		t.Errorf("info sink got a debug record: %s", infoBuf.String())
	}
	if !strings.Contains(debugBuf.String(), "module=test frame.index=4") {
		t.Errorf("attrs not carried through fan-out: %s", debugBuf.String())
	}

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "info message", 0)
	if err := h.Handle(context.Background(), r); !errors.Is(err, sinkErr) {
		t.Errorf("Handle() error = %v, want %v", err, sinkErr)
	}
	if !strings.Contains(infoBuf.String(), "info message") {
		t.Error("a failing sink stopped delivery to the sinks after it")
	}

	mixed := fanoutHandler{debugHandler, infoHandler}
	if !mixed.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled() should be true while any sink accepts the level")
	}
	quiet := fanoutHandler{infoHandler}
	if quiet.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled() should be false when no sink accepts the level")
	}
}

func TestFormatLogLine(t *testing.T) {
	rb := NewRingBuffer(1)
	e := rb.Write(LogEntry{
		Level:      "warn",
		Module:     "movie",
		Message:    "Frame decode failed",
		Attributes: map[string]any{"index": 3, "code": "BAD_MAGIC"},
	})

	line := FormatLogLine(e)
	if !strings.Contains(line, "[WARN] [movie] Frame decode failed code=BAD_MAGIC index=3") {
		t.Errorf("FormatLogLine = %q", line)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}
