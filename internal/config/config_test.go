package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_BASE_URL", "")
	t.Setenv("LIST_LIMIT", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	assert.Equal(t, 5, cfg.ListLimit)
	assert.Equal(t, time.Duration(0), cfg.SessionTTL)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL, "category caching is opt-in")
	assert.Equal(t, 0, cfg.MaxRetries, "read retries are opt-in")
	assert.Empty(t, cfg.SessionSecret, "no secret ships with the binary")
}

func TestLoad_CacheAndRetriesOptIn(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("MAX_RETRIES", "2")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"API_BASE_URL: http://file.example/api/\nLIST_LIMIT: \"10\"\nMEMCACHE_HOSTS: a:11211, b:11211\n",
	), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_BASE_URL", "")
	t.Setenv("MEMCACHE_HOSTS", "")
	t.Setenv("LIST_LIMIT", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://file.example/api", cfg.APIBaseURL)
	assert.Equal(t, 3, cfg.ListLimit)
	assert.Equal(t, []string{"a:11211", "b:11211"}, cfg.MemcacheHosts)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PRESUPUESTO_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("PRESUPUESTO_TEST_KEY", "from-env")

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("PRESUPUESTO_TEST_KEY"))
}

func TestLoad_OutboxCanBeDisabled(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OUTBOX_PATH", "off")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OutboxPath)
}
