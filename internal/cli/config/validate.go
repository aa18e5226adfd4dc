package config

import (
	"fmt"
	"strings"
)

// validFormats lists the supported output formats.
var validFormats = []string{"table", "json", "csv", "md"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	valid := false
	for _, f := range validFormats {
		if c.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid output format %q (valid: %s)", c.Format, strings.Join(validFormats, ", "))
	}

	for i, secret := range c.Database.Secrets {
		if _, ok := secret["type"].(string); !ok {
			return fmt.Errorf("secret %d: type is required", i)
		}
	}

	return nil
}
