// Package main is the entry point for the Activity Registry API server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/mergington/activity-registry/cmd/activity-registry-api/app"
	"github.com/mergington/activity-registry/internal/config"
)

// getLogLevel parses ACTIVITY_REGISTRY_LOG_LEVEL and returns the matching slog.Level.
// Falls back to LOG_LEVEL, then to slog.LevelInfo.
func getLogLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
		return slog.LevelInfo
	}
}

// traceHandler adds the trace_id and span_id of the active span to every record
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// loadDotEnv reads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

func main() {
	loadDotEnv()

	// Logs go to stderr so stdout stays clean for version --format json
	logLevel := new(slog.LevelVar)
	logLevel.Set(getLogLevel())
	baseHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(&traceHandler{Handler: baseHandler}))

	if err := app.NewRootCmd(logLevel).Execute(); err != nil {
		os.Exit(1)
	}
}
