package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromDir(t *testing.T, dir string) *Config {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFromDir(t, t.TempDir())

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24, cfg.Queue.ResultTTLHours)
	assert.Equal(t, 5, cfg.Queue.PollTimeoutSecs)
	assert.Equal(t, "https://s.jina.ai", cfg.Search.BaseURL)
	assert.Equal(t, 2.0, cfg.Search.QueriesPerSecond)
	assert.Equal(t, 45, cfg.Crawl.TimeoutSecs)
	assert.Equal(t, 3, cfg.Webhook.Attempts)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrentScans)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
store:
  driver: postgres
  database_url: postgres://localhost/presence
search:
  key: test-key
  queries_per_second: 0.5
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg := loadFromDir(t, dir)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/presence", cfg.Store.DatabaseURL)
	assert.Equal(t, "test-key", cfg.Search.Key)
	assert.Equal(t, 0.5, cfg.Search.QueriesPerSecond)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Values absent from the file keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRESENCE_REDIS_ADDR", "redis.internal:6380")
	t.Setenv("PRESENCE_PLACES_KEY", "secret")

	cfg := loadFromDir(t, t.TempDir())

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Places.Key)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose", Format: "json"})
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
