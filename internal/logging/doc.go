// Package logging provides structured logging with per-module log levels.
//
// Records are routed to stdout when a terminal, pipe or file is attached,
// to the systemd journal when journald is running, and always to an
// in-memory ring buffer that backs the /api/logs endpoints.
//
// Initialize once at startup, then ask for module loggers:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"stream": "debug", "api": "warn"},
//	})
//
//	logger := logging.GetLogger("movie").With("session_id", id)
//	logger.Info("Movie opened", "frames", n)
//
// Loggers obtained before Initialize are cached and pick up their configured
// level when Initialize runs. SetLevels changes levels at runtime; the config
// file watcher calls it when the [logging] table changes.
//
// Journal output is tagged with the ddsmovie identifier:
//
//	journalctl -t ddsmovie MODULE=stream
//	journalctl -t ddsmovie SESSION_ID=<uuid>
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	stream = "debug"
//	api = "warn"
package logging
