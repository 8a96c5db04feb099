package log

import (
	"io"
	"sync"
)

var (
	defaultLogger *Logger
	loggerMu      sync.RWMutex
)

// SetDefaultLogger sets the process-wide default logger.
func SetDefaultLogger(logger *Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = logger
}

// DefaultLogger returns the process-wide default logger.
// If none was configured, it falls back to a basic logger.
func DefaultLogger() *Logger {
	loggerMu.RLock()
	if defaultLogger != nil {
		defer loggerMu.RUnlock()
		return defaultLogger
	}
	loggerMu.RUnlock()

	logger := Default()
	SetDefaultLogger(logger)
	return logger
}

// Discard returns a logger that drops every record. Used by tests and
// library callers that do not want diagnostics.
func Discard() *Logger {
	cfg := DefaultConfig()
	cfg.Output = io.Discard
	cfg.Level = LevelError
	return New(cfg)
}
