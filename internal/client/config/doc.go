// Package config loads runtime configuration for the finctl CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. FINCTL_SERVER from the environment.
//  3. Optional JSON file selected with -c or -config.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   base URL of the fintrack server
//	-f string   path of the local SQLite session database
//	-i int      request timeout (seconds)
//
// The JSON file accepts durations as strings like "10s" or as integer
// nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "finctl.db",
//	  "request_timeout": "10s"
//	}
package config
