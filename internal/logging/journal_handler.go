package logging

import (
	"context"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// JournalIdentifier is the SYSLOG_IDENTIFIER of every journal entry.
const JournalIdentifier = "ddsmovie"

// maxJournalKey is the longest field name journald accepts.
const maxJournalKey = 64

// Fields journal.Send or this handler set themselves. Attributes with the
// same name are written as ATTR_<name>.
var reservedJournalKeys = map[string]bool{
	"MESSAGE":           true,
	"PRIORITY":          true,
	"SYSLOG_IDENTIFIER": true,
	"CODE_FILE":         true,
	"CODE_LINE":         true,
	"CODE_FUNC":         true,
}

type journalSender func(message string, priority journal.Priority, fields map[string]string) error

// JournalHandler writes records to the systemd journal as structured
// fields, so `journalctl MODULE=stream SESSION_ID=...` narrows output to
// one layer of one playback session. Grouped attributes are joined with
// underscores.
type JournalHandler struct {
	level  slog.Leveler
	send   journalSender
	attrs  []groupedAttr
	groups []string
}

// NewJournalHandler creates a journal handler gated by level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level, send: journal.Send}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": JournalIdentifier}
	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fields["CODE_FILE"] = frame.File
		fields["CODE_LINE"] = strconv.Itoa(frame.Line)
		fields["CODE_FUNC"] = frame.Function
	}

	for _, ga := range h.attrs {
		addJournalField(fields, ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		addJournalField(fields, h.groups, a)
		return true
	})

	return h.send(r.Message, journalPriority(r.Level), fields)
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]groupedAttr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(next.attrs, h.attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, groupedAttr{groups: h.groups, attr: a})
	}
	return &next
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func addJournalField(fields map[string]string, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := groups
		if a.Key != "" {
			nested = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			addJournalField(fields, nested, ga)
		}
		return
	}

	key := journalKey(append(append([]string(nil), groups...), a.Key))
	if reservedJournalKeys[key] {
		key = "ATTR_" + key
	}
	fields[key] = journalValue(a.Value)
}

// journalKey builds a field name journald accepts: uppercase letters,
// digits and underscores, starting with a letter.
func journalKey(parts []string) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteByte('_')
		}
		for _, c := range strings.ToUpper(part) {
			if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
				sb.WriteRune(c)
			} else {
				sb.WriteByte('_')
			}
		}
	}

	key := strings.TrimLeft(sb.String(), "_")
	if key == "" || (key[0] >= '0' && key[0] <= '9') {
		key = "F_" + key
	}
	if len(key) > maxJournalKey {
		key = key[:maxJournalKey]
	}
	return key
}

func journalValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.String()
}

// IsJournalAvailable reports whether the systemd journal socket is reachable.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
