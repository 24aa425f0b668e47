package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ddsmovie/internal/logging"
)

// HTTPLoggingMiddleware logs each request at a level derived from its
// outcome. Polling the status and snapshot endpoints is logged at debug.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	method := ctx.Method()
	path := ctx.URL().Path

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if query := ctx.URL().RawQuery; query != "" {
		attrs = append(attrs, slog.String("query", query))
	}

	next(ctx)

	status := ctx.Status()
	attrs = append(attrs,
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	)

	logging.GetLogger("http").LogAttrs(ctx.Context(), requestLevel(method, path, status), "HTTP request completed", attrs...)
}

func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case method == http.MethodOptions, method == http.MethodGet && isPolledPath(path):
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isPolledPath(path string) bool {
	switch path {
	case "/api/playback", "/api/snapshot", "/api/health":
		return true
	}
	return false
}
