// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/descry/internal/config"
)

// syncBuffer adapts a bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (*syncBuffer) Sync() error { return nil }

func consoleTestConfig() config.LoggerConfig {
	return config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "descry-test",
		Colors: config.ColorConfig{
			Debug: "cyan",
			Info:  "green",
			Warn:  "yellow",
			Error: "red",
			Fatal: "magenta",
		},
	}
}

func TestInitializeConsoleLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(consoleTestConfig(), buf)

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("hello from the test")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "hello from the test")
	assert.Contains(t, out, "descry-test.", "logger name should prefix the line")
	assert.Contains(t, out, "\x1b[32mINFO\x1b[0m", "info level should be colorized green")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := consoleTestConfig()
	cfg.Format = "json"
	buf := &syncBuffer{}
	Initialize(cfg, buf)

	GetLogger().Warn("structured output")
	require.NoError(t, GetLogger().Sync())

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "structured output", entry["msg"])
}

func TestInitializeRunsOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	first := &syncBuffer{}
	second := &syncBuffer{}
	Initialize(consoleTestConfig(), first)
	Initialize(consoleTestConfig(), second)

	GetLogger().Info("only once")
	require.NoError(t, GetLogger().Sync())

	assert.Contains(t, first.String(), "only once")
	assert.Empty(t, second.String(), "a second Initialize call must be a no-op")
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Without initialization GetLogger must still hand back something usable.
	logger := GetLogger()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Debug("fallback logger works") })
}

func TestLevelParsing(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := consoleTestConfig()
	cfg.Level = "warn"
	buf := &syncBuffer{}
	Initialize(cfg, buf)

	GetLogger().Info("should be filtered")
	GetLogger().Warn("should appear")
	require.NoError(t, GetLogger().Sync())

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestSyncDoesNotPanic(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotPanics(t, Sync, "Sync before initialization must be safe")

	Initialize(consoleTestConfig(), &syncBuffer{})
	assert.NotPanics(t, Sync)
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)
