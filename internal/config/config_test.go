package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", cfg.Client.CacheVersion)
	assert.Equal(t, 300*time.Millisecond, cfg.Client.DebounceDelay)
	assert.Equal(t, 50, cfg.Client.ResultCacheSize)
	assert.Equal(t, "localhost:8008", cfg.Server.Addr())
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
server:
  port: "9000"
client:
  cache_version: "2.0.0"
  debounce_delay: 150ms
  result_cache_policy: lru
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "2.0.0", cfg.Client.CacheVersion)
	assert.Equal(t, 150*time.Millisecond, cfg.Client.DebounceDelay)
	assert.Equal(t, "lru", cfg.Client.ResultCachePolicy)
	// untouched defaults survive
	assert.Equal(t, "torrents.parquet", cfg.Client.SnapshotPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DUCKTORRENTS_PORT", "7777")
	t.Setenv("DUCKTORRENTS_RESULT_CACHE_SIZE", "10")
	t.Setenv("DUCKTORRENTS_DEBOUNCE", "1s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, 10, cfg.Client.ResultCacheSize)
	assert.Equal(t, time.Second, cfg.Client.DebounceDelay)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Client.ResultCachePolicy = "random"
	var cfgErr *ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "client.result_cache_policy", cfgErr.Field)

	cfg = Default()
	cfg.Client.ResultCacheSize = 0
	require.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DUCKTORRENTS_CACHE_VERSION=3.0.0\nDUCKTORRENTS_PORT=1234\n"), 0o644))
	t.Setenv("DUCKTORRENTS_PORT", "5555")
	t.Setenv("DUCKTORRENTS_CACHE_VERSION", "")
	os.Unsetenv("DUCKTORRENTS_CACHE_VERSION")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", cfg.Client.CacheVersion)
	// the environment wins over the file
	assert.Equal(t, "5555", cfg.Server.Port)
}
