package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc_url: https://api.mainnet-beta.solana.com
ws_url: wss://api.mainnet-beta.solana.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultCommitment, cfg.Commitment)
	assert.Equal(t, DefaultCatalogTTL, cfg.CatalogTTL)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.True(t, cfg.Log.Console)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
rpc_url: http://localhost:8899
ws_url: ws://localhost:8900
commitment: processed
catalog_ttl: 30s
log:
  level: debug
  file: monitor.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "processed", cfg.Commitment)
	assert.Equal(t, 30*time.Second, cfg.CatalogTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "monitor.log", cfg.Log.File)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
rpc_url: http://localhost:8899
ws_url: ws://localhost:8900
`)
	t.Setenv("SOLANA_MONITOR_COMMITMENT", "finalized")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "finalized", cfg.Commitment)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing rpc_url", "ws_url: ws://localhost:8900\n"},
		{"missing ws_url", "rpc_url: http://localhost:8899\n"},
		{"rpc over websocket scheme", "rpc_url: ws://localhost:8899\nws_url: ws://localhost:8900\n"},
		{"ws over http scheme", "rpc_url: http://localhost:8899\nws_url: http://localhost:8900\n"},
		{"bad commitment", "rpc_url: http://localhost:8899\nws_url: ws://localhost:8900\ncommitment: instant\n"},
		{"bad program override", "rpc_url: http://localhost:8899\nws_url: ws://localhost:8900\namm_program: not-base58!\n"},
		{"zero ttl", "rpc_url: http://localhost:8899\nws_url: ws://localhost:8900\ncatalog_ttl: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
