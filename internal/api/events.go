package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/ddsmovie/internal/api/models"
	"github.com/smazurov/ddsmovie/internal/events"
)

// playbackEventTypes maps SSE event names to payload types.
var playbackEventTypes = map[string]any{
	"playback-status":      models.PlaybackStatus{},
	"frame-decoded":        events.FrameDecodedEvent{},
	"decode-failed":        events.DecodeFailedEvent{},
	"read-failed":          events.ReadFailedEvent{},
	"seek":                 events.SeekEvent{},
	"play-rate-changed":    events.PlayRateChangedEvent{},
	"loop-changed":         events.LoopChangedEvent{},
	"index-reloaded":       events.IndexReloadedEvent{},
	"engine-state-changed": events.EngineStateChangedEvent{},
}

func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Playback Event Stream",
		Description: "Sends the current playback status, then streams playback events as they happen",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, playbackEventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before sending the status so no event falls in between
		eventCh := make(chan any, 64)
		if s.eventBus != nil {
			unsubscribe := events.SubscribePlayback(s.eventBus, eventCh)
			defer unsubscribe()
		}

		if err := send.Data(statusToModel(s.player.Status())); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
