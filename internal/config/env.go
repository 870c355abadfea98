package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config with HANDIN_* environment variables. Values that
// do not parse are skipped rather than fatal; flags can still correct them.
func parseEnv(cfg *Config) {
	if v := os.Getenv("HANDIN_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := os.Getenv("HANDIN_DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("HANDIN_SESSION_CHECK_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SessionCheckInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("HANDIN_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
}
