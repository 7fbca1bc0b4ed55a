package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdash/internal/chaos"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://host" }},
		{"missing host", func(c *Config) { c.Server.BaseURL = "http://" }},
		{"relative path", func(c *Config) { c.Server.ChaosPath = "api/chaos" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"zero reconnect delay", func(c *Config) { c.Telemetry.ReconnectDelay = 0 }},
		{"empty window", func(c *Config) { c.Telemetry.Window = 0 }},
		{"bad chaos", func(c *Config) { c.Chaos.Initial.PacketLossPercent = 120 }},
		{"negative push rate", func(c *Config) { c.Chaos.MaxPushRate = -1 }},
		{"push rate without serialized pushes", func(c *Config) {
			c.Chaos.MaxPushRate = 2
			c.Chaos.SerializePushes = false
		}},
		{"zero users", func(c *Config) { c.Session.Users = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestTelemetryURL(t *testing.T) {
	c := Default()
	got, err := c.TelemetryURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", got)

	c.Server.BaseURL = "https://chaos.example.com/tester"
	got, err = c.TelemetryURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://chaos.example.com/tester/ws", got)
}

func TestReadFile_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chaosdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  base_url: http://10.0.0.5:9000
telemetry:
  reconnect_delay: 5s
  window: 120
chaos:
  serialize_pushes: false
  initial:
    packet_loss_percent: 10
session:
  users: 50
`), 0o644))

	v := NewViper()
	require.NoError(t, ReadFile(v, path, ""))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9000", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Telemetry.ReconnectDelay)
	assert.Equal(t, 120, cfg.Telemetry.Window)
	assert.False(t, cfg.Chaos.SerializePushes)
	assert.Equal(t, chaos.Config{PacketLossPercent: 10, SlowdownMultiplier: 1}, cfg.Chaos.Initial)
	assert.Equal(t, 50, cfg.Session.Users)
	assert.Equal(t, 2, cfg.Session.SpawnRate, "unset keys keep defaults")
}

func TestReadFile_MissingHomeFileIsFine(t *testing.T) {
	v := NewViper()
	assert.NoError(t, ReadFile(v, "", t.TempDir()))
}

func TestReadFile_MissingExplicitFileFails(t *testing.T) {
	v := NewViper()
	assert.Error(t, ReadFile(v, filepath.Join(t.TempDir(), "nope.yaml"), ""))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CHAOSDASH_SERVER_BASE_URL", "https://remote:8443")
	t.Setenv("CHAOSDASH_TELEMETRY_RECONNECT_DELAY", "1s")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "https://remote:8443", cfg.Server.BaseURL)
	assert.Equal(t, time.Second, cfg.Telemetry.ReconnectDelay)
}

func TestValidate_SlowPushRateBeyondRequestTimeout(t *testing.T) {
	c := Default()
	c.Chaos.MaxPushRate = 0.1
	c.Server.RequestTimeout = time.Second
	assert.NoError(t, c.Validate())
}

func TestLoad_KeepsZeroSlowdownInitial(t *testing.T) {
	v := NewViper()
	v.Set("chaos.initial.slowdown_multiplier", 0.0)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, chaos.Config{}, cfg.Chaos.Initial)
}
