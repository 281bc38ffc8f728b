package ltcfg

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
	path := filepath.Join(t.TempDir(), "linkterm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "log", cfg.Sink)
	assert.Equal(t, 1000, cfg.LogCapacity)
	assert.Equal(t, 2*time.Second, cfg.SendTimeout)
	assert.False(t, cfg.API.Enabled)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
nodes:
  remote: "-"
  relay: serial:///dev/ttyACM0?baud=115200
  drone: tcp://127.0.0.1:7001
sink: tcp://127.0.0.1:7002
logCapacity: 50
sendTimeout: 500ms
theme: dark
api:
  enabled: true
log:
  level: debug
  file: /tmp/linkterm.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.Nodes.Remote)
	assert.Equal(t, "serial:///dev/ttyACM0?baud=115200", cfg.Nodes.Relay)
	assert.Equal(t, "tcp://127.0.0.1:7001", cfg.Nodes.Drone)
	assert.Equal(t, "tcp://127.0.0.1:7002", cfg.Sink)
	assert.Equal(t, 50, cfg.LogCapacity)
	assert.Equal(t, 500*time.Millisecond, cfg.SendTimeout)
	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:8089", cfg.API.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 200, cfg.HistorySize)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logCapacity: [1"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "unknownField: 1"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logCapacity: 0"))
	assert.ErrorContains(t, err, "logCapacity")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
		{"zero timeout", func(c *Config) { c.SendTimeout = 0 }},
		{"bad theme", func(c *Config) { c.Theme = "neon" }},
		{"empty sink", func(c *Config) { c.Sink = "" }},
		{"api without listen", func(c *Config) { c.API.Enabled = true; c.API.Listen = "" }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"negative rotation", func(c *Config) { c.Log.MaxBackups = -1 }},
		{"shared serial device", func(c *Config) {
			c.Nodes.Relay = "serial:///dev/ttyACM0"
			c.Sink = "serial:///dev/ttyACM0?baud=921600"
		}},
		{"serial device on two nodes", func(c *Config) {
			c.Nodes.Relay = "serial:///dev/ttyACM0"
			c.Nodes.Drone = "serial:///dev/ttyACM0"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateDistinctSerialDevices(t *testing.T) {
	cfg := Default()
	cfg.Nodes.Relay = "serial:///dev/ttyACM0"
	cfg.Nodes.Drone = "serial:///dev/ttyACM1"
	cfg.Sink = "serial:///dev/ttyACM2?baud=921600"
	assert.NoError(t, cfg.Validate())
}
