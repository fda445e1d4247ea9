package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fintrack/internal/flagx"
	"github.com/dmitrijs2005/fintrack/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Absent fields keep
// their current value.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	DatabasePath   *string         `json:"database_path"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}
