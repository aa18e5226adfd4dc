// Package cli provides the command-line interface for redduck.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/redduck/internal/cli/commands"
	"github.com/leapstack-labs/redduck/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "redduck",
		Short: "redduck - DuckDB utilities and controllers",
		Long: `redduck is a toolkit for working with DuckDB databases.

It wraps connection management, table and row operations, CSV/Parquet
import and export, backups, and maintenance behind one CLI, with an
operation catalog that records what ran and when.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			// Load configuration with CLI flags overriding file and env values
			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Store config in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)

			// Build the logger and store it alongside the config
			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./redduck.yaml)")
	rootCmd.PersistentFlags().String("database", "", "Path to DuckDB database (:memory: for in-memory)")
	rootCmd.PersistentFlags().Bool("read-only", false, "Open the database in read-only mode")
	rootCmd.PersistentFlags().String("history", "", "Path to the operation history database")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format (table|json|csv|md)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	// Register completion for format flag
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewCountCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewBackupCommand())
	rootCmd.AddCommand(commands.NewRestoreCommand())
	rootCmd.AddCommand(commands.NewVacuumCommand())
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		Database:    config.DatabaseConfig{Path: config.DefaultDatabasePath},
		HistoryPath: config.DefaultHistoryFile,
		Format:      config.DefaultFormat,
	}
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for redduck.

To load completions:

Bash:
  $ source <(redduck completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ redduck completion bash > /etc/bash_completion.d/redduck
  # macOS:
  $ redduck completion bash > $(brew --prefix)/etc/bash_completion.d/redduck

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ redduck completion zsh > "${fpath[1]}/_redduck"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ redduck completion fish | source

  # To load completions for each session, execute once:
  $ redduck completion fish > ~/.config/fish/completions/redduck.fish

PowerShell:
  PS> redduck completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> redduck completion powershell > redduck.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
