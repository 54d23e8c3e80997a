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

	assert.Equal(t, "https://www.cotrip.org/roadConditions/getLaneClosureAlerts.do", cfg.Feed.URL)
	assert.Equal(t, 3*time.Minute, cfg.Feed.Interval)
	assert.InDelta(t, 39.084296, cfg.Bounds.South, 1e-9)
	assert.InDelta(t, 40.517692, cfg.Bounds.North, 1e-9)
	assert.Equal(t, "roaddata.json", cfg.State.Snapshot)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  interval: 5m
server:
  addr: ":8080"
log:
  format: console
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Feed.Interval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "console", cfg.Log.Format)
	// Untouched defaults survive.
	assert.Equal(t, "numbers.json", cfg.State.Roster)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  interval: 5m\n"), 0o600))

	t.Setenv("CLOSUREWATCH_FEED_INTERVAL", "2m")
	t.Setenv("CLOSUREWATCH_TWILIO_SID", "AC123")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Feed.Interval)
	assert.Equal(t, "AC123", cfg.Twilio.SID)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty feed url", func(c *Config) { c.Feed.URL = "" }},
		{"zero interval", func(c *Config) { c.Feed.Interval = 0 }},
		{"inverted latitudes", func(c *Config) { c.Bounds.South, c.Bounds.North = c.Bounds.North, c.Bounds.South }},
		{"inverted longitudes", func(c *Config) { c.Bounds.West, c.Bounds.East = c.Bounds.East, c.Bounds.West }},
		{"bad log format", func(c *Config) { c.Log.Format = "plain" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
