package api

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ddsmovie/internal/api/models"
	"github.com/smazurov/ddsmovie/internal/frameindex"
	"github.com/smazurov/ddsmovie/internal/movie"
)

// PlayRateInput is the body of a play rate change.
type PlayRateInput struct {
	Body models.PlayRateRequest
}

// SeekInput is the body of a seek.
type SeekInput struct {
	Body models.SeekRequest
}

// LoopInput is the body of a loop toggle.
type LoopInput struct {
	Body models.LoopRequest
}

func (s *Server) registerPlaybackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-playback",
		Method:      http.MethodGet,
		Path:        "/api/playback",
		Summary:     "Playback Status",
		Description: "Current position, rate, loop flag, counters and the decoded frame descriptor",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		return s.playbackResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-play-rate",
		Method:      http.MethodPut,
		Path:        "/api/playback/rate",
		Summary:     "Set Play Rate",
		Description: "Set the signed play rate. 0 pauses, negative values play backward.",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 422},
	}, func(_ context.Context, input *PlayRateInput) (*models.PlaybackResponse, error) {
		if math.IsNaN(input.Body.Rate) || math.IsInf(input.Body.Rate, 0) {
			return nil, huma.Error422UnprocessableEntity("rate must be finite")
		}
		s.player.SetPlayRate(input.Body.Rate)
		return s.playbackResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "seek",
		Method:      http.MethodPost,
		Path:        "/api/playback/seek",
		Summary:     "Seek",
		Description: "Move the play head to a frame, a time in seconds, or the start or end of the movie",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 422},
	}, func(_ context.Context, input *SeekInput) (*models.PlaybackResponse, error) {
		if err := s.seek(input.Body); err != nil {
			return nil, err
		}
		return s.playbackResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-loop",
		Method:      http.MethodPut,
		Path:        "/api/playback/loop",
		Summary:     "Set Loop",
		Description: "Enable or disable wrapping at either end of the movie",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *LoopInput) (*models.PlaybackResponse, error) {
		s.player.SetLoop(input.Body.Loop)
		return s.playbackResponse(), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reload-frames",
		Method:      http.MethodPost,
		Path:        "/api/playback/reload",
		Summary:     "Reload Frames",
		Description: "Rescan the frame directory. The previous index is kept when the scan fails.",
		Tags:        []string{"playback"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(_ context.Context, _ *struct{}) (*models.PlaybackResponse, error) {
		if err := s.player.Reload(); err != nil {
			return nil, reloadError(err)
		}
		return s.playbackResponse(), nil
	})
}

func (s *Server) seek(req models.SeekRequest) error {
	set := 0
	if req.Frame != nil {
		set++
	}
	if req.Time != nil {
		set++
	}
	if req.Position != "" {
		set++
	}
	if set != 1 {
		return huma.Error422UnprocessableEntity("exactly one of frame, time or position is required")
	}

	switch {
	case req.Frame != nil:
		s.player.SeekToFrame(*req.Frame)
	case req.Time != nil:
		if math.IsNaN(*req.Time) || math.IsInf(*req.Time, 0) {
			return huma.Error422UnprocessableEntity("time must be finite")
		}
		s.player.SeekToTime(*req.Time)
	case req.Position == "start":
		s.player.SeekToStart()
	case req.Position == "end":
		s.player.SeekToEnd()
	default:
		return huma.Error422UnprocessableEntity("unknown position " + req.Position)
	}
	return nil
}

func reloadError(err error) error {
	var loadErr *frameindex.LoadError
	if errors.As(err, &loadErr) && loadErr.Reason == frameindex.ReasonNotExist {
		return huma.Error404NotFound(loadErr.Error())
	}
	return huma.Error500InternalServerError("reload failed", err)
}

func (s *Server) playbackResponse() *models.PlaybackResponse {
	return &models.PlaybackResponse{Body: statusToModel(s.player.Status())}
}

func statusToModel(st movie.Status) models.PlaybackStatus {
	out := models.PlaybackStatus{
		SessionID:    st.ID,
		Directory:    st.Directory,
		Extension:    st.Extension,
		State:        st.State,
		Frames:       st.Frames,
		CurrentFrame: st.CurrentFrame,
		CurrentTime:  st.CurrentTime,
		Duration:     st.Duration,
		FrameRate:    st.FrameRate,
		PlayRate:     st.PlayRate,
		AverageFPS:   st.AverageFPS,
		Loop:         st.Loop,
		Dropped:      st.Dropped,
		Decoded:      st.Decoded,
		DecodeErrors: st.DecodeErrors,
		ReadErrors:   st.ReadErrors,
		LastError:    st.LastError,
	}
	if img := st.Image; img != nil {
		surfaces := make([]models.SurfaceInfo, 0, len(img.Surfaces))
		for _, sf := range img.Surfaces {
			surfaces = append(surfaces, models.SurfaceInfo{
				Level:  sf.Level,
				Layer:  sf.Layer,
				Width:  sf.Width,
				Height: sf.Height,
				Offset: sf.Offset,
				Length: sf.Length,
			})
		}
		out.Image = &models.ImageData{
			Frame:    img.Frame,
			Path:     img.Path,
			Width:    img.Width,
			Height:   img.Height,
			Format:   img.Format.String(),
			MipCount: img.MipCount,
			Cubemap:  img.Cubemap,
			Surfaces: surfaces,
		}
	}
	return out
}
