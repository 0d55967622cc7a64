package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "deinbox", cfg.Cache.Namespace)
	assert.Equal(t, time.Hour, cfg.Cache.TTLProfile)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTLStats)
	assert.Equal(t, 1000, cfg.Gmail.StatsBatchSize)
	assert.Equal(t, 10, cfg.Gmail.FetchConcurrency)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deinbox.yaml")
	yamlDoc := `
port: "9090"
cache:
  namespace: staging
  ttl_stats: 10m
  retry_after: 0s
gmail:
  fetch_concurrency: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GMAIL_FETCH_CONCURRENCY", "6")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "staging", cfg.Cache.Namespace)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTLStats)
	assert.Equal(t, time.Duration(0), cfg.Cache.RetryAfter)
	// environment wins over the file
	assert.Equal(t, 6, cfg.Gmail.FetchConcurrency)
	// untouched keys keep defaults
	assert.Equal(t, time.Hour, cfg.Cache.TTLProfile)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GMAIL_FETCH_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
