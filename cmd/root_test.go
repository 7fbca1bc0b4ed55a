package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaosdash/internal/config"
)

func TestBuild_WiresComponentsFromConfig(t *testing.T) {
	vp := config.NewViper()
	vp.Set("server.base_url", "https://chaos.example.com")
	vp.Set("chaos.max_push_rate", 4.0)
	vp.Set("telemetry.window", 30)

	c, err := build(vp, &bytes.Buffer{})
	require.NoError(t, err)
	defer c.closeLog()

	assert.Equal(t, "https://chaos.example.com", c.cfg.Server.BaseURL)
	assert.NotNil(t, c.executor.Limiter)
	assert.Equal(t, 10*time.Second, c.executor.Timeout)
	assert.Equal(t, 30, c.state.Window().RPS.Cap())
	assert.NotNil(t, c.channel)
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	vp := config.NewViper()
	vp.Set("server.base_url", "ftp://nope")

	_, err := build(vp, nil)
	assert.Error(t, err)
}

func TestFlagsBoundToConfig(t *testing.T) {
	for _, name := range []string{"server", "log-file", "log-level", "metrics-addr", "reconnect-delay", "window", "serialize-pushes", "max-push-rate"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.NotNil(t, watchCmd.Flags().Lookup("start"))
	assert.NotNil(t, dummyCmd.Flags().Lookup("port"))
}
