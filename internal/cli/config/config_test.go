package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.False(t, cfg.Database.ReadOnly)
	assert.Equal(t, DefaultHistoryFile, cfg.HistoryPath)
	assert.Equal(t, "table", cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_FromFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `database:
  path: data/analytics.duckdb
  read_only: true
  extensions:
    - httpfs
    - json
  settings:
    threads: "4"
  secrets:
    - type: s3
      provider: credential_chain
      region: us-east-1
format: json
`
	cfgPath := filepath.Join(dir, "redduck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "data/analytics.duckdb", cfg.Database.Path)
	assert.True(t, cfg.Database.ReadOnly)
	assert.Equal(t, []string{"httpfs", "json"}, cfg.Database.Extensions)
	assert.Equal(t, map[string]string{"threads": "4"}, cfg.Database.Settings)
	require.Len(t, cfg.Database.Secrets, 1)
	assert.Equal(t, "s3", cfg.Database.Secrets[0]["type"])
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "redduck.yml"), []byte("format: csv\n"), 0600))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Format)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "redduck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: file.duckdb\n"), 0600))

	t.Setenv("REDDUCK_DATABASE_PATH", "env.duckdb")
	t.Setenv("REDDUCK_FORMAT", "md")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "env.duckdb", cfg.Database.Path)
	assert.Equal(t, "md", cfg.Format)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	ResetConfig()
	t.Chdir(t.TempDir())
	t.Setenv("REDDUCK_DATABASE_PATH", "env.duckdb")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "")
	flags.Bool("read-only", false, "")
	flags.String("history", "", "")
	flags.String("format", "", "")
	require.NoError(t, flags.Parse([]string{
		"--database", "flag.duckdb",
		"--read-only",
		"--history", "custom/history.db",
	}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "flag.duckdb", cfg.Database.Path)
	assert.True(t, cfg.Database.ReadOnly)
	assert.Equal(t, "custom/history.db", cfg.HistoryPath)
	// Unchanged flag does not override the default
	assert.Equal(t, "table", cfg.Format)
}

func TestLoadConfig_SecretEnvExpansion(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `database:
  secrets:
    - type: s3
      key_id: ${TEST_AWS_KEY}
      secret: ${TEST_AWS_SECRET}
`
	cfgPath := filepath.Join(dir, "redduck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	t.Setenv("TEST_AWS_KEY", "AKIA123")
	t.Setenv("TEST_AWS_SECRET", "shhh")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	require.Len(t, cfg.Database.Secrets, 1)
	assert.Equal(t, "AKIA123", cfg.Database.Secrets[0]["key_id"])
	assert.Equal(t, "shhh", cfg.Database.Secrets[0]["secret"])
}

func TestLoadConfig_UnsetVarKeptVerbatim(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `database:
  secrets:
    - type: s3
      key_id: ${REDDUCK_TEST_UNSET_VAR}
`
	cfgPath := filepath.Join(dir, "redduck.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "${REDDUCK_TEST_UNSET_VAR}", cfg.Database.Secrets[0]["key_id"])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantErr   bool
		errSubstr string
	}{
		{
			name:    "valid defaults",
			cfg:     Config{Database: DatabaseConfig{Path: ":memory:"}, Format: "table"},
			wantErr: false,
		},
		{
			name:      "missing database path",
			cfg:       Config{Format: "table"},
			wantErr:   true,
			errSubstr: "database path is required",
		},
		{
			name:      "invalid format",
			cfg:       Config{Database: DatabaseConfig{Path: ":memory:"}, Format: "xml"},
			wantErr:   true,
			errSubstr: "invalid output format",
		},
		{
			name: "secret without type",
			cfg: Config{
				Database: DatabaseConfig{
					Path:    ":memory:",
					Secrets: []map[string]any{{"provider": "config"}},
				},
				Format: "table",
			},
			wantErr:   true,
			errSubstr: "type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetCurrentConfig(t *testing.T) {
	ResetConfig()
	assert.Nil(t, GetCurrentConfig())

	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Same(t, cfg, GetCurrentConfig())
}
