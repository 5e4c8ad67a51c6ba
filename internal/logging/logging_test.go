package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"comms-middleware/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger := New(config.LogConfig{Level: "info", Filename: path, MaxSize: 1})

	logger.Debug("hidden")
	logger.Info("frame decoded", zap.String("kind", "fuel"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "frame decoded", entry["msg"])
	require.Equal(t, "fuel", entry["kind"])
}

func TestNewInvalidLevelFallsBackToDebug(t *testing.T) {
	logger := New(config.LogConfig{Level: "loud"})
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
