// Package config assembles the runtime settings of the CLI from defaults,
// an optional JSON file, and command-line flags, in that order of
// precedence.
package config

import "time"

// Config holds the runtime settings.
//
//   - ServerAddr: host:port of the submission server; fixed for the
//     lifetime of the session.
//   - DatabasePath: location of the local sqlite database holding the
//     identity keys.
//   - SessionCheckInterval: how often the CLI probes the server to show
//     online/offline status.
//   - Verbose: enables debug logging.
type Config struct {
	ServerAddr           string
	DatabasePath         string
	SessionCheckInterval time.Duration
	Verbose              bool
}

func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:8000"
	c.DatabasePath = "handin.db"
	c.SessionCheckInterval = 30 * time.Second
	c.Verbose = false
}

// LoadConfig builds a Config: defaults, then JSON overlay (if a config file
// was named), then environment, then flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
