package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesToSink(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "desk.log")
	log := NewLogger(Config{Level: zapcore.DebugLevel, Sink: sink}, "desk")
	log.Debug("checkout")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	require.Contains(t, string(data), "desk")
	require.Contains(t, string(data), "checkout")
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	sink := filepath.Join(t.TempDir(), "desk.log")
	log := NewLogger(Config{Level: zapcore.WarnLevel, Sink: sink}, "desk")
	log.Info("quiet")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(sink)
	require.NoError(t, err)
	require.NotContains(t, string(data), "quiet")
}
