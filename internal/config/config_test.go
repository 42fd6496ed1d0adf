package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "logitrack.db", cfg.DB.Path)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "General", cfg.Sync.Sheet)
	require.True(t, cfg.Auth.Enabled)
	require.Empty(t, cfg.NATS.URL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logitrack.yaml")
	content := `
server:
  port: 9090
db:
  path: /tmp/orders.db
nats:
  url: nats://localhost:4222
sync:
  source: /data/General.xlsx
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("LOGITRACK_CONFIG_PATH", path)
	t.Setenv("LOGITRACK_SERVER_PORT", "9191")
	t.Setenv("LOGITRACK_AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/tmp/orders.db", cfg.DB.Path)
	require.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	require.Equal(t, "/data/General.xlsx", cfg.Sync.Source)
	require.False(t, cfg.Auth.Enabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("LOGITRACK_SERVER_PORT", "eighty")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("LOGITRACK_SERVER_PORT", "")
	t.Setenv("LOGITRACK_TRANSPORT", "carrier-pigeon")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("LOGITRACK_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}
