package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/ddsmovie/cmd"
	"github.com/smazurov/ddsmovie/internal/api"
	"github.com/smazurov/ddsmovie/internal/config"
	"github.com/smazurov/ddsmovie/internal/events"
	"github.com/smazurov/ddsmovie/internal/frameindex"
	"github.com/smazurov/ddsmovie/internal/logging"
	"github.com/smazurov/ddsmovie/internal/metrics"
	"github.com/smazurov/ddsmovie/internal/movie"
	"github.com/smazurov/ddsmovie/internal/render"
	"github.com/smazurov/ddsmovie/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"ddsmovie.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Movie settings
	Directory string `help:"Directory holding the frame files" short:"d" default:"frames" toml:"movie.directory" env:"MOVIE_DIRECTORY"`
	Extension string `help:"Frame file extension (case-sensitive)" default:".DDS" toml:"movie.extension" env:"MOVIE_EXTENSION"`
	FrameRate string `help:"Nominal frames per second" default:"29.97" toml:"movie.frame_rate" env:"MOVIE_FRAME_RATE"`
	PlayRate  string `help:"Initial play rate; 0 pauses, negative plays backward" default:"1" toml:"movie.play_rate" env:"MOVIE_PLAY_RATE"`
	Loop      bool   `help:"Wrap at either end of the movie" default:"true" toml:"movie.loop" env:"MOVIE_LOOP"`
	Watch     bool   `help:"Reindex the directory when frame files change" default:"true" toml:"movie.watch" env:"MOVIE_WATCH"`

	// Render settings
	TickRate string `help:"Interval between Update and Draw calls" default:"16ms" toml:"render.tick_rate" env:"RENDER_TICK_RATE"`

	// Metrics settings
	MetricsEnabled bool `help:"Enable Prometheus metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingStream string `help:"Streaming engine logging level" default:"info" toml:"logging.stream" env:"LOGGING_STREAM"`
	LoggingMovie  string `help:"Playback session logging level" default:"info" toml:"logging.movie" env:"LOGGING_MOVIE"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP   string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingConfig string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

// movieSettings parses the numeric movie options. TOML numbers arrive as
// their string form, so both "30" and 30 are accepted.
func (o *Options) movieSettings() (frameRate, playRate float64, tick time.Duration, err error) {
	if frameRate, err = strconv.ParseFloat(o.FrameRate, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("frame rate %q: %w", o.FrameRate, err)
	}
	if playRate, err = strconv.ParseFloat(o.PlayRate, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("play rate %q: %w", o.PlayRate, err)
	}
	if tick, err = time.ParseDuration(o.TickRate); err != nil {
		return 0, 0, 0, fmt.Errorf("tick rate %q: %w", o.TickRate, err)
	}
	return frameRate, playRate, tick, nil
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"stream": o.LoggingStream,
			"movie":  o.LoggingMovie,
			"api":    o.LoggingAPI,
			"http":   o.LoggingHTTP,
			"config": o.LoggingConfig,
		},
	}
}

// application holds the playback session and the services around it. They
// are built when the root command starts, so subcommands never open the
// frame directory.
type application struct {
	opts   *Options
	bus    *events.Bus
	logger *slog.Logger

	mu         sync.Mutex
	player     *movie.Movie
	server     *api.Server
	dirWatcher *config.Watcher[[]string]
	logWatcher *config.Watcher[logging.Config]
	stopRun    context.CancelFunc
	runDone    chan struct{}
}

func newApplication(opts *Options, bus *events.Bus) *application {
	return &application{
		opts:   opts,
		bus:    bus,
		logger: logging.GetLogger("main"),
	}
}

// start opens the movie, launches the tick loop and the watchers, and
// returns the API server for the caller to run.
func (a *application) start() (*api.Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	opts := a.opts
	frameRate, playRate, tickRate, err := opts.movieSettings()
	if err != nil {
		return nil, fmt.Errorf("invalid movie settings: %w", err)
	}

	backend := render.NewSoftware()
	player, err := movie.New(opts.Directory,
		movie.WithExtension(opts.Extension),
		movie.WithFrameRate(frameRate),
		movie.WithPlayRate(playRate),
		movie.WithLoop(opts.Loop),
		movie.WithBackend(backend),
		movie.WithEventBus(a.bus),
		movie.WithMetrics(opts.MetricsEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("open movie in %s: %w", opts.Directory, err)
	}
	a.player = player

	apiOpts := &api.Options{
		AuthUsername: opts.AuthUsername,
		AuthPassword: opts.AuthPassword,
		Player:       player,
		Snapshotter:  backend,
		EventBus:     a.bus,
	}
	if opts.MetricsEnabled {
		apiOpts.PrometheusHandler = metrics.Handler()
	}
	a.server = api.NewServer(apiOpts)

	configLogger := logging.GetLogger("config")
	if opts.Watch {
		a.dirWatcher = config.NewConfigWatcher(
			player.Directory(),
			func(dir string) ([]string, error) { return frameindex.Scan(dir, player.Extension()) },
			configLogger,
			config.WithOps[[]string](config.DirectoryOps),
			config.WithDebounce[[]string](500*time.Millisecond),
		)
		a.dirWatcher.OnReload(player.ReplaceFrames)
		if startErr := a.dirWatcher.Start(); startErr != nil {
			a.logger.Warn("Failed to watch frame directory", "error", startErr)
		}
	}

	a.logWatcher = config.NewConfigWatcher(opts.Config, config.ParseLoggingConfig, configLogger)
	a.logWatcher.OnReload(func(cfg logging.Config) {
		logging.SetLevels(cfg)
		configLogger.Info("Logging levels reloaded", "level", cfg.Level, "modules", len(cfg.Modules))
	})
	if startErr := a.logWatcher.Start(); startErr != nil {
		a.logger.Debug("Config file not watched", "path", opts.Config, "error", startErr)
	}

	runCtx, stopRun := context.WithCancel(context.Background())
	a.stopRun = stopRun
	a.runDone = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		if runErr := player.Run(runCtx, tickRate); runErr != nil {
			a.logger.Error("Tick loop stopped", "error", runErr)
		}
	}(a.runDone)

	return a.server, nil
}

// stop tears down whatever start built. Safe before start and on a failed start.
func (a *application) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		if err := a.server.Stop(); err != nil {
			a.logger.Error("Error stopping HTTP server", "error", err)
		}
		a.server = nil
	}
	if a.dirWatcher != nil {
		_ = a.dirWatcher.Stop()
		a.dirWatcher = nil
	}
	if a.logWatcher != nil {
		_ = a.logWatcher.Stop()
		a.logWatcher = nil
	}
	if a.stopRun != nil {
		a.stopRun()
		<-a.runDone
		a.stopRun = nil
	}
	if a.player != nil {
		a.player.Close()
		a.player = nil
	}
}

func newCLI() humacli.CLI {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(api.LogEntryEvent(entry))
		})

		app := newApplication(opts, eventBus)

		hooks.OnStart(func() {
			app.logger.Info("Starting", "version", version.Get().Banner())
			server, err := app.start()
			if err != nil {
				app.logger.Error("Failed to start", "error", err)
				app.stop()
				os.Exit(1)
			}
			if err := server.Start(opts.Port); err != nil {
				app.logger.Error("Failed to start HTTP server", "error", err)
				app.stop()
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			app.logger.Info("Shutting down")
			app.stop()
		})
	})

	cli.Root().Use = "ddsmovie"
	cli.Root().Short = "Play a directory of DDS textures as a movie"
	cli.Root().Version = version.Get().Banner()

	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateIndexCmd())
	cli.Root().AddCommand(cmd.CreateSnapshotCmd())
	cli.Root().AddCommand(cmd.CreateGenerateCmd())

	return cli
}

func main() {
	newCLI().Run()
}
