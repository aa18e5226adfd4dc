package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against the database",
		Long: `Execute SQL queries against the DuckDB database.

Supports multiple output formats for scripting and integration.
When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  redduck query "SELECT * FROM users LIMIT 10"

  # Read SQL from a file
  redduck query --input report.sql

  # Pipe SQL in
  echo "SELECT 42" | redduck query

  # Output as JSON
  redduck query "SELECT * FROM users" --format json

  # Interactive mode
  redduck query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	format := cmdCtx.Cfg.Format

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, format)
	}

	return cmdCtx.Record("query", "", func() error {
		rows, err := cmdCtx.Controller.Query(cmd.Context(), sqlQuery)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		defer func() { _ = rows.Close() }()

		return renderResults(cmd.OutOrStdout(), rows, format)
	})
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
