package controller

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Name of the secret. Empty creates an unnamed secret.
	Name string `mapstructure:"name,omitempty"`

	// Type: "s3", "gcs", "azure", "r2", "huggingface"
	Type string `mapstructure:"type"`

	// Provider: "config", "credential_chain", "service_account", etc.
	Provider string `mapstructure:"provider"`

	// Region for S3 buckets
	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to specific paths (string or []string)
	Scope any `mapstructure:"scope,omitempty"`

	// KeyID for explicit credentials (prefer credential_chain)
	KeyID string `mapstructure:"key_id,omitempty"`

	// Secret for explicit credentials (prefer credential_chain)
	Secret string `mapstructure:"secret,omitempty"`

	// Endpoint for S3-compatible services (MinIO, etc.)
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`

	// UseSSL: whether to use HTTPS (default true)
	UseSSL *bool `mapstructure:"use_ssl,omitempty"`
}

// DecodeConfig decodes a configuration map into a Config.
// Used by callers that carry controller settings as loosely typed maps,
// such as YAML config files.
func DecodeConfig(params map[string]any) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode controller config: %w", err)
	}
	return cfg, nil
}

// DecodeSecrets decodes a slice of secret maps into SecretConfigs.
func DecodeSecrets(raw []map[string]any) ([]SecretConfig, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	secrets := make([]SecretConfig, 0, len(raw))
	for i, m := range raw {
		var s SecretConfig
		if err := mapstructure.Decode(m, &s); err != nil {
			return nil, fmt.Errorf("failed to decode secret %d: %w", i, err)
		}
		secrets = append(secrets, s)
	}
	return secrets, nil
}

// buildCreateSecretSQL compiles a SecretConfig to a CREATE OR REPLACE SECRET
// statement. Field order follows the DuckDB documentation examples.
func buildCreateSecretSQL(cfg SecretConfig) string {
	var parts []string

	if cfg.Type != "" {
		parts = append(parts, fmt.Sprintf("TYPE %s", cfg.Type))
	}
	if cfg.Provider != "" {
		parts = append(parts, fmt.Sprintf("PROVIDER %s", cfg.Provider))
	}
	if cfg.Region != "" {
		parts = append(parts, fmt.Sprintf("REGION '%s'", quoteString(cfg.Region)))
	}
	if scope := formatSecretScope(cfg.Scope); scope != "" {
		parts = append(parts, "SCOPE "+scope)
	}
	if cfg.KeyID != "" {
		parts = append(parts, fmt.Sprintf("KEY_ID '%s'", quoteString(cfg.KeyID)))
	}
	if cfg.Secret != "" {
		parts = append(parts, fmt.Sprintf("SECRET '%s'", quoteString(cfg.Secret)))
	}
	if cfg.Endpoint != "" {
		parts = append(parts, fmt.Sprintf("ENDPOINT '%s'", quoteString(cfg.Endpoint)))
	}
	if cfg.URLStyle != "" {
		parts = append(parts, fmt.Sprintf("URL_STYLE '%s'", quoteString(cfg.URLStyle)))
	}
	if cfg.UseSSL != nil {
		parts = append(parts, fmt.Sprintf("USE_SSL %t", *cfg.UseSSL))
	}

	name := ""
	if cfg.Name != "" {
		name = quoteIdent(cfg.Name) + " "
	}

	return fmt.Sprintf("CREATE OR REPLACE SECRET %s(\n    %s\n)", name, strings.Join(parts, ",\n    "))
}

// formatSecretScope formats the scope field, which may be a single path or
// a list of paths.
func formatSecretScope(scope any) string {
	switch v := scope.(type) {
	case nil:
		return ""
	case string:
		if v == "" {
			return ""
		}
		return fmt.Sprintf("'%s'", quoteString(v))
	case []string:
		return formatScopeList(v)
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				strs = append(strs, s)
			}
		}
		return formatScopeList(strs)
	default:
		return ""
	}
}

func formatScopeList(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = fmt.Sprintf("'%s'", quoteString(p))
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

// sortedKeys returns map keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
