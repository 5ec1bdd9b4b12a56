package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"EBOOKS_CONFIG", "KOMGA_URL", "KOMGA_USERNAME", "KOMGA_PASSWORD", "KOMGA_LIBRARY",
	"KOMGA_REQUESTS_PER_SECOND", "EBOOKS_CACHE_DIR", "EBOOKS_COALESCE_LOADS",
	"PORT", "SERVER_MODE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOMGA_USERNAME", "reader")
	t.Setenv("KOMGA_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:25600", cfg.KomgaURL)
	assert.Equal(t, 10.0, cfg.KomgaRequestsPerSecond)
	assert.Equal(t, filepath.Join(home, ".mcp-search-ebooks-cache"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(cfg.CacheDir, "chapters"), cfg.ChaptersDir())
	assert.Equal(t, filepath.Join(cfg.CacheDir, "pages"), cfg.PagesDir())
	assert.False(t, cfg.CoalesceLoads)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.ServerMode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOMGA_URL", "https://komga.example.com")
	t.Setenv("KOMGA_USERNAME", "reader")
	t.Setenv("KOMGA_PASSWORD", "secret")
	t.Setenv("KOMGA_LIBRARY", "Books")
	t.Setenv("KOMGA_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("EBOOKS_CACHE_DIR", "/var/cache/ebooks")
	t.Setenv("EBOOKS_COALESCE_LOADS", "true")
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_MODE", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://komga.example.com", cfg.KomgaURL)
	assert.Equal(t, "Books", cfg.KomgaLibrary)
	assert.Equal(t, 2.5, cfg.KomgaRequestsPerSecond)
	assert.Equal(t, "/var/cache/ebooks", cfg.CacheDir)
	assert.True(t, cfg.CoalesceLoads)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.ServerMode)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ebooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
komga:
  url: http://nas:25600
  username: file-user
  password: file-pass
  library: Academic
  requests_per_second: 4
cache:
  dir: /srv/cache
  coalesce_loads: true
server:
  port: "7000"
log_level: warn
`), 0o644))
	t.Setenv("EBOOKS_CONFIG", path)
	t.Setenv("KOMGA_LIBRARY", "Fiction")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://nas:25600", cfg.KomgaURL)
	assert.Equal(t, "file-user", cfg.KomgaUsername)
	assert.Equal(t, "Fiction", cfg.KomgaLibrary)
	assert.Equal(t, 4.0, cfg.KomgaRequestsPerSecond)
	assert.Equal(t, "/srv/cache", cfg.CacheDir)
	assert.True(t, cfg.CoalesceLoads)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KOMGA_USERNAME", "reader")

		_, err := Load()
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("bad log level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("KOMGA_USERNAME", "reader")
		t.Setenv("KOMGA_PASSWORD", "secret")
		t.Setenv("LOG_LEVEL", "chatty")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unreadable config file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EBOOKS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("komga: [unclosed"), 0o644))
		t.Setenv("EBOOKS_CONFIG", path)

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_FLOAT", "abc")
	assert.Equal(t, 3.0, getEnvFloat("TEST_FLOAT", 3))
	t.Setenv("TEST_FLOAT", "-1")
	assert.Equal(t, 3.0, getEnvFloat("TEST_FLOAT", 3))

	t.Setenv("TEST_BOOL", "maybe")
	assert.True(t, getEnvBool("TEST_BOOL", true))
	t.Setenv("TEST_BOOL", "0")
	assert.False(t, getEnvBool("TEST_BOOL", true))
}
