package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// NewLogger returns a slog logger configured for Cloud Logging compatibility.
func NewLogger(service string) *slog.Logger {
	return New(os.Stdout, service, os.Getenv("LOG_LEVEL"))
}

// New builds a JSON logger writing to w at the named level (debug, info, warn, error; default info).
func New(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", service))
}

// Discard returns a logger that drops every record; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// FromRequest attaches the chi request identifier, when present, to the logger.
func FromRequest(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		return logger.With(slog.String("requestId", reqID))
	}
	return logger
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
