package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/miketth/vdock/pkg/vdock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	assert.Equal(t, "http://localhost:5000/api", cfg.Server.APIURL)
	assert.Equal(t, 5*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, vdock.GridConfig{Rows: 3, Cols: 3}, cfg.Deck.DefaultGrid)
	assert.Equal(t, 50, cfg.Deck.HistoryCap)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "127.0.0.1:9477", cfg.Status.Listen)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  api_url: http://deck.lan:5000/api
monitor:
  source: hyprland
  poll_interval: 2s
deck:
  default_grid:
    rows: 4
    cols: 5
cache:
  backend: redis
  redis:
    addr: redis:6379
integrations:
  - app_exe: obs
    enabled: true
    auto_switch: true
    scene_id: streaming
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://deck.lan:5000/api", cfg.Server.APIURL)
	assert.Equal(t, "ws://localhost:5000/ws", cfg.Server.WebSocketURL)
	assert.Equal(t, "hyprland", cfg.Monitor.Source)
	assert.Equal(t, 2*time.Second, cfg.Monitor.PollInterval)
	assert.True(t, cfg.Monitor.AutoSwitch)
	assert.Equal(t, vdock.GridConfig{Rows: 4, Cols: 5}, cfg.Deck.DefaultGrid)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	require.Len(t, cfg.Integrations, 1)
	assert.Equal(t, vdock.AppIntegration{AppExe: "obs", Enabled: true, AutoSwitch: true, SceneID: "streaming"}, cfg.Integrations[0])
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"source":  "monitor:\n  source: x11\n",
		"backend": "cache:\n  backend: etcd\n",
		"grid":    "deck:\n  default_grid:\n    rows: 0\n",
		"syntax":  "server: [",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
