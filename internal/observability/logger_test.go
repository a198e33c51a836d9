// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jhemmrich/deskpilot/internal/config"
)

// setupTestLogger initializes the global logger to write into a buffer.
func setupTestLogger(cfg config.LoggerConfig) *bytes.Buffer {
	buf := new(bytes.Buffer)
	Initialize(cfg, zapcore.AddSync(buf))
	return buf
}

func TestInitializeLogger(t *testing.T) {
	t.Run("console logger with colors", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "TestService",
			Colors:      config.ColorConfig{Info: "green"},
		}
		buf := setupTestLogger(cfg)

		GetLogger().Info("This is a test message.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "This is a test message.")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
	})

	t.Run("json logger", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}
		buf := setupTestLogger(cfg)

		GetLogger().Warn("This is a JSON message.", zap.String("key", "value"))
		Sync()

		var logEntry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		assert.Equal(t, "WARN", logEntry["level"])
		assert.Equal(t, "JSONTest", logEntry["logger"])
		assert.Equal(t, "This is a JSON message.", logEntry["msg"])
		assert.Equal(t, "value", logEntry["key"])
	})

	t.Run("level filtering", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		cfg := config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "FilterTest"}
		buf := setupTestLogger(cfg)

		GetLogger().Info("filtered out")
		GetLogger().Warn("kept")
		Sync()

		output := buf.String()
		assert.NotContains(t, output, "filtered out")
		assert.Contains(t, output, "kept")
	})

	t.Run("second initialize is a no-op", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		first := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"})
		second := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "Second"})

		GetLogger().Info("who gets this")
		Sync()

		assert.Contains(t, first.String(), "who gets this")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}
