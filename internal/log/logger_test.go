package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:       level,
		Format:      format,
		Output:      &buf,
		ServiceName: "wiggum",
	})
	return logger, &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" info ", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelWarn},
		{"", LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestLevelToSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.ToSlogLevel())
	assert.Equal(t, slog.LevelError, LevelError.ToSlogLevel())
	assert.Equal(t, slog.LevelWarn, Level(999).ToSlogLevel())
	assert.Equal(t, "UNKNOWN", Level(999).String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("console"))
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "text", FormatText.String())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelWarn, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "wiggum", cfg.ServiceName)
	assert.NotNil(t, cfg.Output)
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestJSONFormatOutput(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo, FormatJSON)

	logger.WithProject("@scope/app").Info("scanning", "files", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scanning", entry["msg"])
	assert.Equal(t, "@scope/app", entry["project"])
	assert.Equal(t, "wiggum", entry["service"])
	assert.EqualValues(t, 3, entry["files"])
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "runner error",
			err:      errors.NewEmptySelectionError([]string{"@scope/*"}),
			contains: []string{"error_code=FILTER-001", "suggestions="},
		},
		{
			name:     "wrapped runner error",
			err:      fmt.Errorf("filter: %w", errors.New(errors.ErrCodeFilterPattern, "bad pattern")),
			contains: []string{"error_code=FILTER-002"},
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("boom"),
			contains: []string{"error=boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelDebug, FormatText)
			logger.WithError(tt.err).Warn("failed")
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestWithErrorNil(t *testing.T) {
	logger, _ := newBufferLogger(LevelDebug, FormatText)
	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogError(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatText)

	logger.LogError(nil)
	assert.Empty(t, buf.String())

	logger.LogError(errors.Wrap(errors.ErrCodeDiscoveryRead, "read failed", fmt.Errorf("denied")))
	out := buf.String()
	assert.True(t, strings.Contains(out, "operation failed"))
	assert.Contains(t, out, "cause=denied")
}

func TestEnabled(t *testing.T) {
	logger, _ := newBufferLogger(LevelInfo, FormatText)
	ctx := context.Background()

	assert.False(t, logger.Enabled(ctx, LevelDebug))
	assert.True(t, logger.Enabled(ctx, LevelInfo))
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error("nothing to see")
	assert.Equal(t, LevelError, logger.Config().Level)
}

func TestDefaultLoggerConcurrency(t *testing.T) {
	custom, _ := newBufferLogger(LevelDebug, FormatJSON)
	SetDefaultLogger(custom)
	defer SetDefaultLogger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Same(t, custom, DefaultLogger())
		}()
	}
	wg.Wait()
}
