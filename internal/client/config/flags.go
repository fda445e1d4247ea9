package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
)

func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-i"})

	fs := flag.NewFlagSet("finctl", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the fintrack server")
	fs.StringVar(&cfg.DatabasePath, "f", cfg.DatabasePath, "path of the local session database")
	timeout := fs.Int("i", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
