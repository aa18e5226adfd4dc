package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// initConfig mirrors the redduck.yaml layout for scaffolding.
type initConfig struct {
	Database struct {
		Path       string            `yaml:"path"`
		ReadOnly   bool              `yaml:"read_only"`
		Extensions []string          `yaml:"extensions"`
		Settings   map[string]string `yaml:"settings,omitempty"`
	} `yaml:"database"`
	HistoryPath string `yaml:"history_path"`
	Format      string `yaml:"format"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new redduck project",
		Long: `Initialize a redduck project with a default configuration file.

This creates a redduck.yaml describing the DuckDB database location,
extensions to load, and the operation history path.`,
		Example: `  # Initialize in current directory
  redduck init

  # Initialize in a new directory
  redduck init my-project

  # Force overwrite existing config
  redduck init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "redduck.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("redduck.yaml already exists. Use --force to overwrite")
	}

	var cfg initConfig
	cfg.Database.Path = "data/redduck.duckdb"
	cfg.HistoryPath = ".redduck/history.db"
	cfg.Format = "table"
	cfg.Database.Extensions = []string{}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# redduck configuration\n# See `redduck --help` for flag and env var equivalents.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Created %s\n", configPath)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintln(out, "  1. Point database.path at your DuckDB file (or :memory:)")
	_, _ = fmt.Fprintln(out, "  2. Run 'redduck import data.csv --table mytable' to load data")
	_, _ = fmt.Fprintln(out, "  3. Run 'redduck query' to explore it")

	return nil
}
