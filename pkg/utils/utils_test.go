package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := NewLoggerAdapter(zap.New(core))

	adapter.Info("Snapshot reconciled", "invoices", 4, "total_earned", "250.00")
	adapter.Error("Backend fetch failed", "error", errors.New("boom"), 7, "seven", "dangling")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	info := entries[0].ContextMap()
	assert.Equal(t, int64(4), info["invoices"])
	assert.Equal(t, "250.00", info["total_earned"])

	failed := entries[1].ContextMap()
	assert.Equal(t, "boom", failed["error"])
	assert.Equal(t, "seven", failed["7"])
	assert.Equal(t, "dangling", failed["extra"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")
	logger, err := NewLogger(LoggerConfig{Level: "nonsense", OutputPath: path, Format: "json"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://portal.example.com"))
	assert.Error(t, ValidateBaseURL("portal.example.com"))
	assert.Error(t, ValidateBaseURL("ftp://portal.example.com"))

	assert.NoError(t, ValidateRedisURL("redis://localhost:6379/0"))
	assert.Error(t, ValidateRedisURL("http://localhost:6379"))

	assert.NoError(t, ValidateOneOf("cache.backend", "redis", "memory", "redis"))
	assert.ErrorContains(t, ValidateOneOf("cache.backend", "disk", "memory", "redis"), "memory, redis")
}
