package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Format selects the line encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Context keys for propagating logging context
const (
	RequestIDKey = "request_id"
	ComponentKey = "component"
)

// Logger defines the core logging interface for calclog components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger carrying the given fields on every entry.
	With(fields ...Field) Logger
	// WithComponent tags logs with a component name
	WithComponent(component string) Logger
	WithError(err error) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// LoggerOption is a function that configures a logger.
type LoggerOption func(*options)

type options struct {
	level   Level
	format  Format
	out     io.Writer
	redacts []string
}

// BaseLogger implements Logger on top of slog.
type BaseLogger struct {
	level      *slog.LevelVar
	slogLogger *slog.Logger
}

// NewLogger creates a new logger with the given options. Defaults are info
// level, text format, stdout.
func NewLogger(opts ...LoggerOption) Logger {
	o := options{level: InfoLevel, format: FormatText, out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	lv := new(slog.LevelVar)
	lv.Set(toSlogLevel(o.level))
	return &BaseLogger{level: lv, slogLogger: slog.New(newHandler(o, lv))}
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(o *options) { o.level = level }
}

// WithFormat sets the output encoding.
func WithFormat(format Format) LoggerOption {
	return func(o *options) { o.format = format }
}

// WithOutput sets the destination writer.
func WithOutput(w io.Writer) LoggerOption {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

// WithRedactions replaces the values of the named keys with [REDACTED].
func WithRedactions(keys ...string) LoggerOption {
	return func(o *options) { o.redacts = append(o.redacts, keys...) }
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() Logger {
	return NewLogger(WithOutput(io.Discard), WithLevel(ErrorLevel))
}

func (l *BaseLogger) log(level slog.Level, msg string, fields []Field) {
	ctx := context.Background()
	if !l.slogLogger.Enabled(ctx, level) {
		return
	}
	l.slogLogger.LogAttrs(ctx, level, msg, attrsFromFields(fields)...)
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.log(slog.LevelDebug, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.log(slog.LevelInfo, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.log(slog.LevelWarn, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.log(slog.LevelError, msg, fields) }

// With returns a child logger sharing the level of its parent.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	return &BaseLogger{level: l.level, slogLogger: l.slogLogger.With(attrsToAny(attrsFromFields(fields))...)}
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *BaseLogger) WithError(err error) Logger {
	return l.With(Err(err))
}

func (l *BaseLogger) SetLevel(level Level) { l.level.Set(toSlogLevel(level)) }

func (l *BaseLogger) GetLevel() Level { return fromSlogLevel(l.level.Level()) }

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, &invalidLevelError{s}
	}
}

type invalidLevelError struct{ s string }

func (e *invalidLevelError) Error() string { return "log: invalid level " + strings.TrimSpace(e.s) }
