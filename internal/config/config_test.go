package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stockfish", cfg.Engine.BinaryPath)
	assert.Equal(t, 14, cfg.Engine.Depth)
	assert.Equal(t, 128, cfg.Engine.HashMB)
	assert.Equal(t, 512, cfg.Engine.HandshakeLineCap)
	assert.Equal(t, "pgnview", cfg.Server.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"engine": {"binaryPath": "lc0", "depth": 20, "hashMB": 256},
		"logging": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lc0", cfg.Engine.BinaryPath)
	assert.Equal(t, 20, cfg.Engine.Depth)
	assert.Equal(t, 256, cfg.Engine.HashMB)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep defaults
	assert.Equal(t, ":8080", cfg.Server.HealthAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PGNVIEW_ENGINE_PATH", "fairy-stockfish")
	t.Setenv("PGNVIEW_ENGINE_DEPTH", "18")
	t.Setenv("PGNVIEW_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fairy-stockfish", cfg.Engine.BinaryPath)
	assert.Equal(t, 18, cfg.Engine.Depth)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_ClampsRanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"engine": {"hashMB": 1, "depth": 0, "handshakeLineCap": -5, "searchTimeoutSec": 0}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Engine.HashMB)
	assert.Equal(t, 1, cfg.Engine.Depth)
	assert.Equal(t, 1, cfg.Engine.HandshakeLineCap)
	assert.Equal(t, 1.0, cfg.Engine.SearchTimeoutSec)
}

func TestLoad_MissingAbsoluteBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"engine": {"binaryPath": "/nonexistent/stockfish"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
