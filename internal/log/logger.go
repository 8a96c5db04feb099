package log

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	logger := slog.New(handler)
	if config.ServiceName != "" {
		logger = logger.With("service", config.ServiceName)
	}

	return &Logger{
		slog:   logger,
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithProject scopes the logger to one workspace project
func (l *Logger) WithProject(name string) *Logger {
	return l.With("project", name)
}

// WithError adds error details to the logger
// If the error is a RunnerError, it adds error_code and suggestions
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var runErr *errors.RunnerError
	if stderrors.As(err, &runErr) {
		args := []any{
			"error", runErr.Message,
			"error_code", string(runErr.Code),
		}

		if len(runErr.Suggestions) > 0 {
			args = append(args, "suggestions", runErr.Suggestions)
		}

		if runErr.Cause != nil {
			args = append(args, "cause", runErr.Cause.Error())
		}

		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// LogError logs an error with full details
func (l *Logger) LogError(err error) {
	if err == nil {
		return
	}
	l.WithError(err).Error("operation failed")
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
