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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 60*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Game.InactivityTimeout)
	assert.Equal(t, 6, cfg.Game.RoomCodeLength)
	assert.Equal(t, 32, cfg.Game.TokenLength)
	assert.Equal(t, 5, cfg.Admin.RateLimit)
	assert.Equal(t, time.Minute, cfg.Admin.RateWindow)
	assert.Empty(t, cfg.Admin.Key)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
game:
  turn_timeout: 30s
storage:
  backend: redis
  redis_url: redis://example:6379/1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Game.TurnTimeout)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis://example:6379/1", cfg.Storage.RedisURL)
	// Untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7777")
	t.Setenv("TURN_TIMEOUT_SECONDS", "0")
	t.Setenv("ADMIN_KEY", "hunter2")
	t.Setenv("STORAGE_BACKEND", "redis")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	// Zero disables the turn timer
	assert.Equal(t, time.Duration(0), cfg.Game.TurnTimeout)
	assert.Equal(t, "hunter2", cfg.Admin.Key)
	assert.Equal(t, "redis", cfg.Storage.Backend)
}

func TestUnknownBackendRejected(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "carrier-pigeon")
	_, err := Load("")
	assert.ErrorContains(t, err, "unknown storage backend")
}
