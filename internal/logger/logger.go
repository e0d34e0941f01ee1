package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Format:    "text",
		Output:    os.Stderr,
		AddSource: false,
	}
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func Init(cfg Config) {
	var handler slog.Handler

	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func Debug(msg string, args ...any) { slog.Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }

// ForComponent returns a logger tagged with component. Package-level
// loggers are built before Init runs, so records are routed to whatever
// default handler is installed when they are emitted.
func ForComponent(component string) *slog.Logger {
	return slog.New(deferredHandler{}).With("component", component)
}

func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}

type deferredHandler struct {
	attrs []slog.Attr
	group string
}

func (h deferredHandler) resolve() slog.Handler {
	next := slog.Default().Handler()
	if len(h.attrs) > 0 {
		next = next.WithAttrs(h.attrs)
	}
	if h.group != "" {
		next = next.WithGroup(h.group)
	}
	return next
}

func (h deferredHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slog.Default().Handler().Enabled(ctx, level)
}

func (h deferredHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h deferredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.group != "" {
		return groupedHandler{parent: h.resolve().WithAttrs(attrs)}
	}
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return deferredHandler{attrs: merged}
}

func (h deferredHandler) WithGroup(name string) slog.Handler {
	if h.group != "" {
		return groupedHandler{parent: h.resolve().WithGroup(name)}
	}
	return deferredHandler{attrs: h.attrs, group: name}
}

// groupedHandler freezes the default handler once nesting gets deeper than
// one group.
type groupedHandler struct {
	parent slog.Handler
}

func (h groupedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.parent.Enabled(ctx, level)
}

func (h groupedHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.parent.Handle(ctx, r)
}

func (h groupedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return groupedHandler{parent: h.parent.WithAttrs(attrs)}
}

func (h groupedHandler) WithGroup(name string) slog.Handler {
	return groupedHandler{parent: h.parent.WithGroup(name)}
}
