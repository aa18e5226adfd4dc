package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
// This key is shared with root.go via both using the same type.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// configExistsIn checks if a redduck config file exists in the directory.
func configExistsIn(dir string) string {
	for _, name := range []string{"redduck.yaml", "redduck.yml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigFile finds the config file to use.
// Priority: explicit path > redduck.yaml/redduck.yml in CWD or any parent.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database.path":      DefaultDatabasePath,
		"database.read_only": false,
		"history_path":       DefaultHistoryFile,
		"format":             DefaultFormat,
		"verbose":            false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (REDDUCK_ prefix)
	// Transform: REDDUCK_DATABASE_PATH -> database.path
	if err := k.Load(env.Provider("REDDUCK_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "REDDUCK_"))
		if rest, ok := strings.CutPrefix(key, "database_"); ok {
			return "database." + rest
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// EXPLICIT MAPPING: short flag names map onto nested config keys.
			// The CLI uses --database for brevity, the config nests it under database.path.
			switch f.Name {
			case "database":
				return "database.path", posflag.FlagVal(flags, f)
			case "read-only":
				return "database.read_only", posflag.FlagVal(flags, f)
			case "history":
				return "history_path", posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Expand ${VAR} references in secret material so credentials can stay
	// out of the config file.
	expandSecretEnvVars(cfg.Database.Secrets)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandSecretEnvVars expands environment variables in sensitive secret fields.
func expandSecretEnvVars(secrets []map[string]any) {
	for _, secret := range secrets {
		for _, field := range []string{"key_id", "secret", "endpoint"} {
			if v, ok := secret[field].(string); ok {
				secret[field] = expandEnvVars(v)
			}
		}
	}
}
