package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"devsyslog/internal/emit"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
endpoint = "127.0.0.1:9000"
colors = "never"
show_device_name = true
exit_on_disconnect = true
reconnect_interval = "250ms"
quiet_processes = ["mydaemon", " "]
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Endpoint)
	assert.Equal(t, emit.ColorNever, cfg.Colors)
	assert.True(t, cfg.ShowDeviceName)
	assert.False(t, cfg.SyslogRelay)
	assert.True(t, cfg.ExitOnDisconnect)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectInterval)
	assert.Equal(t, []string{"mydaemon"}, cfg.QuietProcesses)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, `colors = "rainbow"`), nil)
	assert.ErrorContains(t, err, "parse colors")

	_, err = Load(writeConfig(t, `reconnect_interval = "-1s"`), nil)
	assert.ErrorContains(t, err, "reconnect_interval must be > 0")

	_, err = Load(writeConfig(t, `endpoint = [`), nil)
	assert.ErrorContains(t, err, "parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envColors, "always")
	t.Setenv(envReconnectInterval, "3s")
	cfg, err := Load(writeConfig(t, `colors = "never"`), nil)
	require.NoError(t, err)
	assert.Equal(t, emit.ColorAlways, cfg.Colors)
	assert.Equal(t, 3*time.Second, cfg.ReconnectInterval)
}

func TestInvalidEnvIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	t.Setenv(envColors, "plaid")
	t.Setenv(envReconnectInterval, "soon")

	cfg, err := Load(writeConfig(t, ""), zap.New(core).Sugar())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2, logs.Len())
}
