package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TASKDECK_CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "taskdeck.db", cfg.DB.Path)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, 100*time.Millisecond, cfg.Realtime.GraceDelay)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /tmp/deck.db
realtime:
  grace_delay: 250ms
`), 0o644))

	t.Setenv("TASKDECK_CONFIG_PATH", path)
	t.Setenv("TASKDECK_LOG_LEVEL", "debug")
	t.Setenv("TASKDECK_AUTH_ENABLED", "false")
	t.Setenv("TASKDECK_DEFAULT_SESSION", "user-1")
	t.Setenv("TASKDECK_ALLOWED_ORIGINS", "https://deck.example.com, ,http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/deck.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, "user-1", cfg.Auth.DefaultSession)
	require.Equal(t, 250*time.Millisecond, cfg.Realtime.GraceDelay)
	require.Equal(t, []string{"https://deck.example.com", "http://localhost:5173"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("TASKDECK_CONFIG_PATH", "")
	t.Setenv("TASKDECK_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TASKDECK_SERVER_PORT", "")
	t.Setenv("TASKDECK_REALTIME_GRACE", "soon")
	_, err = Load()
	require.Error(t, err)
}
