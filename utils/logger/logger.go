// Package logger builds the process slog.Logger: JSON on stdout, optionally
// mirrored to the OpenTelemetry log pipeline, with trace and request context
// attached to every record.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// Options configures New.
type Options struct {
	Level   string    // debug, info, warn, error
	OTel    bool      // mirror records to the OTel log pipeline
	Output  io.Writer // defaults to os.Stdout
	Service string

	// LoggerProvider receives the mirrored records; nil means the global one.
	LoggerProvider log.LoggerProvider
}

// Init builds a logger from LOG_LEVEL and installs it as the slog default.
func Init(service string, enableOTel bool) *slog.Logger {
	l := New(Options{Level: os.Getenv("LOG_LEVEL"), OTel: enableOTel, Service: service})
	slog.SetDefault(l)
	return l
}

// New builds a logger without touching the slog default.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := parseLevel(opts.Level)

	var handler slog.Handler = NewContextHandler(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	if opts.OTel {
		provider := opts.LoggerProvider
		if provider == nil {
			provider = global.GetLoggerProvider()
		}
		bridge := otelslog.NewHandler("festival-hub", otelslog.WithLoggerProvider(provider))
		handler = fanout{handler, NewContextHandler(leveled{Handler: bridge, level: level})}
	}

	l := slog.New(handler)
	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// leveled gates a handler that has no level of its own.
type leveled struct {
	slog.Handler
	level slog.Level
}

func (h leveled) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.Handler.Enabled(ctx, level)
}

func (h leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return leveled{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h leveled) WithGroup(name string) slog.Handler {
	return leveled{Handler: h.Handler.WithGroup(name), level: h.level}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
