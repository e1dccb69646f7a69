package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// Output formats accepted by Setup.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config selects the backend and verbosity installed by Setup.
type Config struct {
	Level  string    // "debug", "info", "warn" or "error"
	Format string    // FormatConsole (zerolog) or FormatJSON (slog)
	Output io.Writer // defaults to os.Stderr
}

// Setup installs the process-wide logger provider and routes library
// warnings through it. Console output uses zerolog; JSON output uses slog
// wrapped by ErrorHandler so logged errors carry their kind and stack trace.
func Setup(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var provider LoggerProvider
	switch strings.ToLower(cfg.Format) {
	case "", FormatConsole:
		provider = NewZerologProvider(NewConsoleZerolog(out), level)
	case FormatJSON:
		provider = NewSlogProvider(out, level)
	default:
		return errors.NewValidationError("log_format", "must be one of console, json", cfg.Format)
	}

	SetProvider(provider)
	errors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), ErrorTypeKey, warningType(w), "warning", w)
	})
	return nil
}

// ParseLevel converts a textual level into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.NewValidationError("log_level", "must be one of debug, info, warn, error", level)
	}
}

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a slog handler. The handler is wrapped by
// ErrorHandler so that errors logged under ErrAttrKey get their kind and a
// stack trace.
func NewSlogLogger(handler slog.Handler) Logger {
	return &slogLogger{l: slog.New(WrapErrorHandler(handler))}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}

// newJSONHandler builds the JSON handler used by FormatJSON. Keys are renamed
// to the CloudLogging layout.
func newJSONHandler(w io.Writer, level slog.Leveler) slog.Handler {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			case slog.SourceKey:
				attr.Key = "logging.googleapis.com/sourceLocation"
			}
			return attr
		},
	}
	return slog.NewJSONHandler(w, &ops)
}

func warningType(w error) string {
	switch w.(type) {
	case *errors.UndefinedMetricWarning:
		return "UndefinedMetricWarning"
	default:
		return "Warning"
	}
}
