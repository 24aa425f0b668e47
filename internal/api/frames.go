package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ddsmovie/internal/api/models"
	"github.com/smazurov/ddsmovie/internal/render"
)

// FramesInput pages through the frame index.
type FramesInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Index of the first frame to return"`
	Limit  int `query:"limit" minimum:"1" maximum:"10000" default:"100" doc:"Maximum number of frames to return"`
}

// SnapshotInput selects the snapshot encoding.
type SnapshotInput struct {
	Format   string `query:"format" enum:"png,jpeg" default:"png" doc:"Image encoding"`
	MaxWidth int    `query:"max_width" minimum:"0" default:"0" doc:"Downscale to this width, 0 keeps the source size"`
	Quality  int    `query:"quality" minimum:"1" maximum:"100" default:"85" doc:"JPEG quality"`
}

// SnapshotOutput is a raw encoded image.
type SnapshotOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

func (s *Server) registerFrameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-frames",
		Method:      http.MethodGet,
		Path:        "/api/frames",
		Summary:     "List Frames",
		Description: "Page through the frame files in playback order",
		Tags:        []string{"frames"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, input *FramesInput) (*models.FramesResponse, error) {
		return &models.FramesResponse{Body: pageFrames(s.player.Frames(), input.Offset, input.Limit)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-snapshot",
		Method:      http.MethodGet,
		Path:        "/api/snapshot",
		Summary:     "Snapshot",
		Description: "Level 0 of the current frame as PNG or JPEG. Cubemaps return the +X face.",
		Tags:        []string{"frames"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 500, 503},
	}, func(_ context.Context, input *SnapshotInput) (*SnapshotOutput, error) {
		if s.snapshots == nil {
			return nil, huma.Error503ServiceUnavailable("snapshots are not available for this backend")
		}

		format := render.SnapshotFormat(input.Format)
		var buf bytes.Buffer
		if err := s.snapshots.Snapshot(&buf, format, input.MaxWidth, input.Quality); err != nil {
			if errors.Is(err, render.ErrNoFrame) {
				return nil, huma.Error404NotFound("no frame decoded yet")
			}
			return nil, huma.Error500InternalServerError("snapshot failed", err)
		}

		return &SnapshotOutput{
			ContentType:  "image/" + input.Format,
			CacheControl: "no-store",
			Body:         buf.Bytes(),
		}, nil
	})
}

func pageFrames(paths []string, offset, limit int) models.FramesData {
	data := models.FramesData{
		Total:  len(paths),
		Offset: offset,
		Frames: []models.FrameDescriptor{},
	}
	if offset >= len(paths) {
		return data
	}
	end := min(offset+limit, len(paths))
	for i := offset; i < end; i++ {
		data.Frames = append(data.Frames, models.FrameDescriptor{
			Index: i,
			Name:  filepath.Base(paths[i]),
			Path:  paths[i],
		})
	}
	return data
}
