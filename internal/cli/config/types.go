// Package config provides configuration management for the redduck CLI.
//
// Configuration is loaded from a YAML file (redduck.yaml), environment
// variables (REDDUCK_ prefix), and command-line flags, with flags taking
// the highest precedence.
package config

// DatabaseConfig holds the DuckDB connection settings.
type DatabaseConfig struct {
	Path       string            `koanf:"path"`
	ReadOnly   bool              `koanf:"read_only"`
	Extensions []string          `koanf:"extensions"`
	Settings   map[string]string `koanf:"settings"`
	Secrets    []map[string]any  `koanf:"secrets"`
}

// Config holds all CLI configuration options.
type Config struct {
	Database    DatabaseConfig `koanf:"database"`
	HistoryPath string         `koanf:"history_path"`
	Format      string         `koanf:"format"`
	Verbose     bool           `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultDatabasePath = ":memory:"
	DefaultHistoryFile  = ".redduck/history.db"
	DefaultFormat       = "table"
)
