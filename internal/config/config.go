// Package config loads daemon configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix maps CLOSUREWATCH_FEED_URL to feed.url and so on.
const envPrefix = "CLOSUREWATCH_"

// Config is the full daemon configuration.
type Config struct {
	Feed    FeedConfig    `koanf:"feed"`
	Bounds  BoundsConfig  `koanf:"bounds"`
	State   StateConfig   `koanf:"state"`
	Twilio  TwilioConfig  `koanf:"twilio"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
}

type FeedConfig struct {
	URL      string        `koanf:"url"`
	Interval time.Duration `koanf:"interval"`
}

// BoundsConfig is the regional bounding box; both edges of each interval
// are inclusive.
type BoundsConfig struct {
	South float64 `koanf:"south"`
	North float64 `koanf:"north"`
	West  float64 `koanf:"west"`
	East  float64 `koanf:"east"`
}

type StateConfig struct {
	Snapshot  string `koanf:"snapshot"`
	Roster    string `koanf:"roster"`
	Archive   string `koanf:"archive"`
	Analytics string `koanf:"analytics"`
}

type TwilioConfig struct {
	SID   string `koanf:"sid"`
	Token string `koanf:"token"`
	From  string `koanf:"from"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing is overridden. The
// bounding box is the I-70 mountain corridor west of Denver.
func Default() Config {
	return Config{
		Feed: FeedConfig{
			URL:      "https://www.cotrip.org/roadConditions/getLaneClosureAlerts.do",
			Interval: 3 * time.Minute,
		},
		Bounds: BoundsConfig{
			South: 39.084296,
			North: 40.517692,
			West:  -107.399081,
			East:  -105.128684,
		},
		State: StateConfig{
			Snapshot:  "roaddata.json",
			Roster:    "numbers.json",
			Archive:   "archive",
			Analytics: "analytics",
		},
		Server: ServerConfig{
			Addr:            ":3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the config from defaults, an optional YAML file, and
// environment variables, in rising precedence. An empty path skips the
// file layer; a named file that does not exist is an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url must be set")
	}
	if c.Feed.Interval <= 0 {
		return fmt.Errorf("feed.interval must be positive, got %s", c.Feed.Interval)
	}
	if c.Bounds.South > c.Bounds.North {
		return fmt.Errorf("bounds: south %.6f above north %.6f", c.Bounds.South, c.Bounds.North)
	}
	if c.Bounds.West > c.Bounds.East {
		return fmt.Errorf("bounds: west %.6f east of east %.6f", c.Bounds.West, c.Bounds.East)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}
