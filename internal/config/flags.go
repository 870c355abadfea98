package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkarpov/handin/internal/flagx"
)

// parseFlags overlays Config with command-line values.
//
//	-a string   address and port of the submission server
//	-d string   path to the local client database
//	-i int      session check interval in seconds
//	-v          verbose (debug) logging
//
// Only the flags listed here are parsed; everything else on the command
// line is left for other components.
func parseFlags(cfg *Config) {
	applyFlags(cfg, flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i", "-v"}))
}

func applyFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerAddr, "a", cfg.ServerAddr, "address and port of the submission server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local client database")
	interval := fs.Int("i", int(cfg.SessionCheckInterval.Seconds()), "session check interval (in seconds)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionCheckInterval = time.Duration(*interval) * time.Second
}
