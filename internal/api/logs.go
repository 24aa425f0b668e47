package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/logging"
)

// LogEntryEvent converts a buffered log entry to its SSE payload.
func LogEntryEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Seq:        entry.Seq,
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// LogStreamInput resumes a log stream.
type LogStreamInput struct {
	Since uint64 `query:"since" doc:"Only send entries with a greater sequence number"`
}

func (s *Server) registerLogRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Sends buffered log entries first, then streams new ones",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, input *LogStreamInput, send sse.Sender) {
		eventCh := make(chan any, 256)
		if s.eventBus != nil {
			unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
			defer unsubscribe()
		}

		last := input.Since
		if buffer := logging.GetBuffer(); buffer != nil {
			for _, entry := range buffer.ReadSince(last) {
				if err := send.Data(LogEntryEvent(entry)); err != nil {
					return
				}
				last = entry.Seq
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-eventCh:
				entry, ok := ev.(events.LogEntryEvent)
				// Entries written while the history was sent arrive twice
				if !ok || entry.Seq <= last {
					continue
				}
				last = entry.Seq
				if err := send.Data(entry); err != nil {
					return
				}
			}
		}
	})
}
