package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

// TestLogger_FormatsAndFilters verifies messages are formatted and filtered by level
func TestLogger_FormatsAndFilters(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core), LogLevelInfo).With("request_id", "abc")

	logger.Info("solved %s in %d iterations", "n", 12)
	logger.Debug("hidden")
	logger.Trace("hidden too")
	logger.Error("failed: %v", "boom")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "solved n in 12 iterations", entries[0].Message)
	assert.Equal(t, "abc", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, LogLevelInfo, logger.GetLevel())
}

func TestLogger_TraceBelowDebug(t *testing.T) {
	core, logs := observer.New(zapTraceLevel)
	logger := FromZap(zap.New(core), LogLevelTrace)

	logger.Trace("bracket [%g, %g]", 0.1, 0.2)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapTraceLevel, logs.All()[0].Level)
}
