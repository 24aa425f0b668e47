package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/ddsmovie/internal/api/models"
	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/logging"
	"github.com/smazurov/ddsmovie/internal/movie"
	"github.com/smazurov/ddsmovie/internal/render"
	"github.com/smazurov/ddsmovie/internal/version"
	"github.com/smazurov/ddsmovie/ui"
)

// Player is the playback session controlled by the API. *movie.Movie
// implements it.
type Player interface {
	Status() movie.Status
	Frames() []string
	SetPlayRate(rate float64)
	SeekToFrame(n int)
	SeekToTime(seconds float64)
	SeekToStart()
	SeekToEnd()
	SetLoop(loop bool)
	Reload() error
}

// Snapshotter encodes the most recently uploaded frame. *render.Software
// implements it.
type Snapshotter interface {
	Snapshot(w io.Writer, format render.SnapshotFormat, maxWidth, quality int) error
}

// Options configures the API server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	Player            Player
	Snapshotter       Snapshotter  // Optional, snapshots return 503 without it
	EventBus          *events.Bus  // Optional, SSE endpoints only send the initial state without it
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
	CORS              *CORSConfig  // Defaults to DefaultCORSConfig
}

// Server is the HTTP control surface of a playback session.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	player     Player
	snapshots  Snapshotter
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates the API server and registers every route.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	if opts.CORS != nil {
		corsConfig = *opts.CORS
	}
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("ddsmovie API", version.String())
	config.Info.Description = "Playback control for DDS texture movies"
	// Empty servers list keeps OpenAPI paths relative
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:       api,
		mux:       mux,
		player:    opts.Player,
		snapshots: opts.Snapshotter,
		eventBus:  opts.EventBus,
		logger:    logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	// Registered on the mux directly so scrapers skip huma middleware
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	if page, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			page.ServeHTTP(w, r)
		})
	}

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start listens on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and every open connection, including SSE streams.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerPlaybackRoutes()
	s.registerFrameRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
}

// withAuth returns the basic auth security requirement.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
