package fst

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "read", cfg.ReadMode)
	assert.False(t, cfg.VerifyProperties)
	assert.Equal(t, int64(1<<20), cfg.CacheGCLimit)
	assert.False(t, cfg.AlignWrites)
	assert.Equal(t, 0, cfg.Verbosity)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fst.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"read_mode: map\nverify_properties: true\ncache_gc_limit: 4096\nverbosity: 2\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "map", cfg.ReadMode)
	assert.True(t, cfg.VerifyProperties)
	assert.Equal(t, int64(4096), cfg.CacheGCLimit)
	// Unset keys keep their defaults.
	assert.False(t, cfg.AlignWrites)
	assert.Equal(t, 2, cfg.Verbosity)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fst.yaml")
	require.NoError(t, os.WriteFile(path, []byte("read_mode: [unterminated"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfig_LogLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{5, slog.LevelDebug},
	}
	for _, tt := range tests {
		cfg := Config{Verbosity: tt.verbosity}
		assert.Equal(t, tt.want, cfg.LogLevel())
	}
}

func TestSetProcessConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadMode = "map"
	withProcessConfig(t, cfg)
	assert.Equal(t, "map", ProcessConfig().ReadMode)
}
