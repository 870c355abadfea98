package config

import (
	"encoding/json"
	"os"

	"github.com/dkarpov/handin/internal/flagx"
	"github.com/dkarpov/handin/internal/timex"
)

// jsonConfig is the file-level DTO. Intervals may be given as strings like
// "30s" or as integer nanoseconds.
type jsonConfig struct {
	ServerAddr           string         `json:"server_addr"`
	DatabasePath         string         `json:"database_path"`
	SessionCheckInterval timex.Duration `json:"session_check_interval"`
	Verbose              bool           `json:"verbose"`
}

// parseJSON overlays cfg with values from the file named by -c/-config.
// No file flag means no overlay. Read or parse errors panic; the process
// has no useful way to continue with a half-read config.
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	applyJSON(cfg, data)
}

func applyJSON(cfg *Config, data []byte) {
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerAddr != "" {
		cfg.ServerAddr = jc.ServerAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SessionCheckInterval.Duration != 0 {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	if jc.Verbose {
		cfg.Verbose = true
	}
}
