package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/journal"
)

type journalEntry struct {
	message  string
	priority journal.Priority
	fields   map[string]string
}

func captureJournal(level slog.Level) (*JournalHandler, *[]journalEntry) {
	var entries []journalEntry
	h := NewJournalHandler(level)
	h.send = func(message string, priority journal.Priority, fields map[string]string) error {
		entries = append(entries, journalEntry{message, priority, fields})
		return nil
	}
	return h, &entries
}

func TestJournalHandlerFields(t *testing.T) {
	h, entries := captureJournal(slog.LevelDebug)
	logger := slog.New(h).With("module", "stream", "session_id", "abc-123")

	logger.WithGroup("frame").Warn("Failed to read frame",
		"index", 7,
		"rate", 0.5,
		"error", errors.New("permission denied"),
		"message", "shadowed",
		"content-type", "image/x-dds",
		"2x", true,
	)

	if len(*entries) != 1 {
		t.Fatalf("sent %d entries, want 1", len(*entries))
	}
	e := (*entries)[0]
	if e.message != "Failed to read frame" || e.priority != journal.PriWarning {
		t.Errorf("message = %q, priority = %d", e.message, e.priority)
	}

	want := map[string]string{
		"SYSLOG_IDENTIFIER":  JournalIdentifier,
		"MODULE":             "stream",
		"SESSION_ID":         "abc-123",
		"FRAME_INDEX":        "7",
		"FRAME_RATE":         "0.5",
		"FRAME_ERROR":        "permission denied",
		"FRAME_MESSAGE":      "shadowed",
		"FRAME_CONTENT_TYPE": "image/x-dds",
		"FRAME_2X":           "true",
	}
	for key, value := range want {
		if got := e.fields[key]; got != value {
			t.Errorf("field %s = %q, want %q", key, got, value)
		}
	}
	if _, ok := e.fields["MESSAGE"]; ok {
		t.Error("MESSAGE must be left to journal.Send")
	}
	if !strings.HasSuffix(e.fields["CODE_FUNC"], "TestJournalHandlerFields") {
		t.Errorf("CODE_FUNC = %q", e.fields["CODE_FUNC"])
	}
}

func TestJournalHandlerLevels(t *testing.T) {
	h, entries := captureJournal(slog.LevelInfo)
	logger := slog.New(h)

	logger.Debug("hidden")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	want := []journal.Priority{journal.PriInfo, journal.PriWarning, journal.PriErr}
	if len(*entries) != len(want) {
		t.Fatalf("sent %d entries, want %d", len(*entries), len(want))
	}
	for i, p := range want {
		if got := (*entries)[i].priority; got != p {
			t.Errorf("entry %d priority = %d, want %d", i, got, p)
		}
	}
}

func TestJournalKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"module"}, "MODULE"},
		{[]string{"decode", "frame"}, "DECODE_FRAME"},
		{[]string{"_private"}, "PRIVATE"},
		{[]string{"9lives"}, "F_9LIVES"},
		{[]string{"max-width"}, "MAX_WIDTH"},
		{[]string{""}, "F_"},
		{[]string{strings.Repeat("a", 80)}, strings.Repeat("A", 64)},
	}
	for _, tt := range tests {
		if got := journalKey(tt.parts); got != tt.want {
			t.Errorf("journalKey(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestJournalHandlerReservedKeys(t *testing.T) {
	h, entries := captureJournal(slog.LevelInfo)
	slog.New(h).Info("reserved", "priority", "high", "code_line", 3)

	fields := (*entries)[0].fields
	if fields["ATTR_PRIORITY"] != "high" || fields["ATTR_CODE_LINE"] != "3" {
		t.Errorf("reserved attributes not renamed: %v", fields)
	}
	if fields["CODE_LINE"] == "3" {
		t.Error("attribute overwrote the caller line")
	}
}
