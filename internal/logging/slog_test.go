package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/mcint/types"
)

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ types.Logger = (*SlogLogger)(nil)
	require.NotNil(t, NewSlogDefault())
}

func TestSlogLogger_Levels(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSlog(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Debug("debug message", "rank", 1)
	logger.Info("info message", "threads", 4)
	logger.Warn("warn message", "state", "sampling")
	logger.Error("error message", "error", "timeout")

	output := buf.String()
	assert.Contains(t, output, "level=DEBUG")
	assert.Contains(t, output, "rank=1")
	assert.Contains(t, output, "threads=4")
	assert.Contains(t, output, "state=sampling")
	assert.Contains(t, output, "error=timeout")
}

func TestNew(t *testing.T) {
	t.Run("json format filters by level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New(buf, "warn", "json")
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "invocation_id", "abc")

		output := buf.String()
		assert.NotContains(t, output, "hidden")
		assert.Contains(t, output, `"msg":"shown"`)
		assert.Contains(t, output, `"invocation_id":"abc"`)
	})

	t.Run("with adds fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger, err := New(buf, "", "text")
		require.NoError(t, err)

		logger.With("rank", 2).Info("joined")
		assert.Contains(t, buf.String(), "rank=2")
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := New(nil, "verbose", "text")
		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := New(nil, "info", "xml")
		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
}
