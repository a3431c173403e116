// Package config loads runtime configuration for the client CLI.
//
// Sources and precedence: built-in defaults, then an optional JSON file
// (selected via -c or -config), then command-line flags.
package config

import "time"

// Config holds runtime settings for the client.
type Config struct {
	// ServerURL is the base URL of the sync server.
	ServerURL string
	// DatabasePath is the SQLite file holding local state.
	DatabasePath string
	// OnlineCheckInterval is how often the client probes server reachability.
	OnlineCheckInterval time.Duration
	// RequestTimeout bounds every server round-trip.
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "gtdkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
