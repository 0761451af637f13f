package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "mainnet", cfg.Network)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.OnchainReceiveEnabled)
	assert.False(t, cfg.TorEnabled)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/harbor-test
network: signet
log_level: debug
onchain_receive_enabled: true
tor_enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/harbor-test", cfg.DataDir)
	assert.Equal(t, "signet", cfg.Network)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.OnchainReceiveEnabled)
	assert.True(t, cfg.TorEnabled)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "network: mutinynet\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mutinynet", cfg.Network)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRejectsUnknownNetwork(t *testing.T) {
	path := writeConfig(t, "network: testnet9\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "network: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = ""
	require.Error(t, cfg.Validate())
}

func TestDBPath(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/lib/harbor"
	assert.Equal(t, filepath.Join("/var/lib/harbor", "harbor.sqlite"), cfg.DBPath())
}

func TestSlogLevel(t *testing.T) {
	for level, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		cfg := Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel())
	}
}
