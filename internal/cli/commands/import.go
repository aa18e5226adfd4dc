package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/redduck/pkg/controller"
	"github.com/spf13/cobra"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Table     string
	Delimiter string
	NoHeader  bool
}

// formatForFile infers the import format from a file extension.
func formatForFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv", nil
	case ".parquet":
		return "parquet", nil
	}
	return "", fmt.Errorf("cannot infer format for %s (expected .csv or .parquet)", path)
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import CSV or Parquet files into a table",
		Long: `Import one or more data files into a table.

The format is inferred from the file extension. The table is created
from the first file if it does not exist; additional files and repeat
imports append to it. All files in one invocation must share a format.`,
		Example: `  # Import a CSV file (table name defaults to the file name)
  redduck import users.csv

  # Import several Parquet files into one table
  redduck import part1.parquet part2.parquet --table events

  # Semicolon-delimited CSV
  redduck import data.csv --delimiter ";"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "Target table (default: first file's base name)")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "CSV delimiter (default: ,)")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "CSV files have no header row")

	return cmd
}

func runImport(cmd *cobra.Command, files []string, opts *ImportOptions) error {
	format, err := formatForFile(files[0])
	if err != nil {
		return err
	}
	for _, f := range files[1:] {
		ff, err := formatForFile(f)
		if err != nil {
			return err
		}
		if ff != format {
			return fmt.Errorf("mixed file formats: %s is %s, expected %s", f, ff, format)
		}
	}

	tableName := opts.Table
	if tableName == "" {
		base := filepath.Base(files[0])
		tableName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	detail := fmt.Sprintf("table=%s files=%d format=%s", tableName, len(files), format)
	return cmdCtx.Record("import", detail, func() error {
		ctx := cmd.Context()
		switch format {
		case "csv":
			err = cmdCtx.Controller.ImportCSV(ctx, tableName, files, controller.CSVOptions{
				Delimiter: opts.Delimiter,
				NoHeader:  opts.NoHeader,
			})
		case "parquet":
			err = cmdCtx.Controller.ImportParquet(ctx, tableName, files)
		}
		if err != nil {
			return err
		}

		count, err := cmdCtx.Controller.Count(ctx, tableName)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d file(s) into %s (%d rows)\n", len(files), tableName, count)
		return nil
	})
}
