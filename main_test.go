package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smazurov/ddsmovie/cmd"
	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/frameindex"
)

func testOptions(dir string) *Options {
	return &Options{
		Config:        filepath.Join(dir, "ddsmovie.toml"),
		Port:          "127.0.0.1:0",
		Directory:     dir,
		Extension:     ".DDS",
		FrameRate:     "29.97",
		PlayRate:      "1",
		TickRate:      "5ms",
		Loop:          true,
		Watch:         true,
		LoggingLevel:  "error",
		LoggingFormat: "text",
	}
}

func TestSubcommandsDoNotOpenFrameDirectory(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := os.Stat("frames"); !os.IsNotExist(err) {
		t.Fatalf("frames directory unexpectedly present: %v", err)
	}

	cli := newCLI()
	cli.Root().SetArgs([]string{"generate", "out", "--frames", "3", "--width", "8", "--height", "8"})
	cli.Run()

	paths, err := frameindex.Scan("out", ".DDS")
	if err != nil {
		t.Fatalf("Scan(out) error = %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("generate wrote %d frames, want 3", len(paths))
	}
}

func TestApplicationStartMissingDirectory(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "missing"))
	app := newApplication(opts, events.New())

	_, err := app.start()
	var loadErr *frameindex.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("start() error = %v, want *frameindex.LoadError", err)
	}
	app.stop()
}

func TestApplicationStartInvalidSettings(t *testing.T) {
	opts := testOptions(t.TempDir())
	opts.FrameRate = "fast"
	app := newApplication(opts, events.New())

	if _, err := app.start(); err == nil {
		t.Fatal("start() accepted a non-numeric frame rate")
	}
	app.stop()
}

func TestApplicationStartAndStop(t *testing.T) {
	dir := t.TempDir()
	if _, err := cmd.Generate(dir, cmd.GenerateOptions{Frames: 4, Width: 8, Height: 8, Format: "rgba", Extension: ".DDS", Prefix: "frame"}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	app := newApplication(testOptions(dir), events.New())
	server, err := app.start()
	if err != nil {
		t.Fatalf("start() error = %v", err)
	}
	if server == nil {
		t.Fatal("start() returned no server")
	}

	app.mu.Lock()
	player := app.player
	app.mu.Unlock()
	if player.NumFrames() != 4 {
		t.Errorf("NumFrames() = %d, want 4", player.NumFrames())
	}

	deadline := time.Now().Add(time.Second)
	for player.Status().Image == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if player.Status().Image == nil {
		t.Error("tick loop never uploaded a frame")
	}

	done := make(chan struct{})
	go func() {
		app.stop()
		app.stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop() did not return")
	}
}
