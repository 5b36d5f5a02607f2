package logger

import (
	"testing"

	"github.com/arloliu/mcint/types"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	var logger types.Logger = NewNop()

	require.NotPanics(t, func() {
		logger.Debug("sampling", "rank", 0)
		logger.Info("")
		logger.Warn("odd arguments", "dangling")
		logger.Error("failed", "error", "boom")
		logger.Fatal("does not exit")
	})
}

func TestFormatKeyValues(t *testing.T) {
	require.Equal(t, "", formatKeyValues(nil))
	require.Equal(t, " rank=1 threads=4", formatKeyValues([]any{"rank", 1, "threads", 4}))
	require.Equal(t, " rank=<missing>", formatKeyValues([]any{"rank"}))
}

func TestTestLogger(t *testing.T) {
	logger := NewTest(t)
	logger.Debug("debug", "k", "v")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
}
