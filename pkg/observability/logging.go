package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

// Logger is a structured logger for server and extension-side components
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout.
func NewLogger(component string, level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, component, level)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(w io.Writer, component string, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(w, opts)

	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "codeeditor"),
	)

	return &Logger{Logger: logger}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return NewLoggerWithWriter(io.Discard, "nop", slog.LevelError+1)
}

// ParseLevel maps workbench log level names onto slog levels.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "off":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext returns a logger carrying the trace and span ids of ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return l
	}
	return &Logger{
		Logger: l.Logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		),
	}
}

// WithRoute returns a logger with route-specific fields
func (l *Logger) WithRoute(route string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("route", route))}
}

// WithExtension returns a logger with extension-specific fields
func (l *Logger) WithExtension(id string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("extension_id", id))}
}

// RequestServed logs a completed HTTP request
func (l *Logger) RequestServed(method, path string, status int, duration time.Duration) {
	l.Debug("request served",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)
}

// ProxyFetched logs an upstream gallery fetch
func (l *Logger) ProxyFetched(target string, status int) {
	l.Debug("gallery resource fetched",
		slog.String("target", target),
		slog.Int("status", status),
	)
}

// ProxyRejected logs a refused gallery request
func (l *Logger) ProxyRejected(target, reason string, err error) {
	l.Warn("gallery resource rejected",
		slog.String("target", target),
		slog.String("reason", reason),
		slog.String("error_code", string(cerrors.GetCode(err))),
	)
}

// RequestRejected logs a request refused before reaching its handler's work.
func (l *Logger) RequestRejected(route string, err error) {
	l.Warn("request rejected",
		slog.String("route", route),
		slog.String("error_code", string(cerrors.GetCode(err))),
		slog.String("error", cerrors.UserMessage(err)),
	)
}

// IdleTouched logs an idle sentinel update
func (l *Logger) IdleTouched(source, timestamp string) {
	l.Debug("idle timestamp updated",
		slog.String("source", source),
		slog.String("timestamp", timestamp),
	)
}

// SessionTransition logs a session scheduler state change
func (l *Logger) SessionTransition(from, to string, delay time.Duration) {
	l.Info("session state changed",
		slog.String("from_state", from),
		slog.String("to_state", to),
		slog.Duration("next_check", delay),
	)
}

// ExtensionInstalled logs a synchronized extension
func (l *Logger) ExtensionInstalled(id, previousVersion string) {
	l.Info("extension installed",
		slog.String("extension_id", id),
		slog.String("previous_version", previousVersion),
	)
}

// OperationFailed logs a failed best-effort operation
func (l *Logger) OperationFailed(operation string, err error) {
	l.Error("operation failed",
		slog.String("operation", operation),
		slog.String("error_code", string(cerrors.GetCode(err))),
		slog.String("error", err.Error()),
	)
}
