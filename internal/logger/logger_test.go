package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"supplier-chat/internal/config"
)

func TestNewStdout(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat.log")
	log, err := New(config.LogConfig{Level: "warn", Output: "file", FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Warn("written")
	_ = log.Sync()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, level("verbose"))
	assert.Equal(t, zapcore.ErrorLevel, level("ERROR"))
}
