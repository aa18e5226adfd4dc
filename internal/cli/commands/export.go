package commands

import (
	"fmt"

	"github.com/leapstack-labs/redduck/pkg/controller"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format       string
	Output       string
	Delimiter    string
	NoHeader     bool
	Compression  string
	RowGroupSize int
	All          bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export [table]...",
		Short: "Export tables to CSV or Parquet files",
		Long: `Export one or more tables to data files.

With a single table, --output names the target file. With multiple
tables or --all, --output names a directory and each table becomes
one file in it.`,
		Example: `  # Export a table to CSV
  redduck export users --output users.csv

  # Export to Parquet with zstd compression
  redduck export users --format parquet --output users.parquet

  # Export every table into a directory
  redduck export --all --format parquet --output ./dump`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "csv", "Export format: csv or parquet")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file or directory (required)")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "CSV delimiter (default: ,)")
	cmd.Flags().BoolVar(&opts.NoHeader, "no-header", false, "Omit the CSV header row")
	cmd.Flags().StringVar(&opts.Compression, "compression", "", "Parquet compression codec (default: zstd)")
	cmd.Flags().IntVar(&opts.RowGroupSize, "row-group-size", 0, "Parquet row group size")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Export all tables")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts *ExportOptions) error {
	if len(args) == 0 && !opts.All {
		return fmt.Errorf("specify at least one table or use --all")
	}
	// Without an explicit --format, the output file's extension decides
	if !cmd.Flags().Changed("format") {
		if f, err := formatForFile(opts.Output); err == nil {
			opts.Format = f
		}
	}
	if opts.Format != "csv" && opts.Format != "parquet" {
		return fmt.Errorf("unsupported format %q (valid: csv, parquet)", opts.Format)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	tables := args
	if opts.All {
		tables, err = cmdCtx.Controller.Tables(ctx)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return fmt.Errorf("no tables to export")
		}
	}

	detail := fmt.Sprintf("tables=%d format=%s output=%s", len(tables), opts.Format, opts.Output)
	return cmdCtx.Record("export", detail, func() error {
		// Single table exports to a file, multiple to a directory
		if len(tables) == 1 && !opts.All {
			if err := exportOne(cmd, cmdCtx, tables[0], opts); err != nil {
				return err
			}
		} else {
			if err := cmdCtx.Controller.ExportTables(ctx, tables, opts.Output, opts.Format); err != nil {
				return err
			}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d table(s) to %s\n", len(tables), opts.Output)
		return nil
	})
}

func exportOne(cmd *cobra.Command, cmdCtx *CommandContext, tableName string, opts *ExportOptions) error {
	ctx := cmd.Context()
	if opts.Format == "parquet" {
		return cmdCtx.Controller.ExportParquet(ctx, tableName, opts.Output, controller.ParquetOptions{
			Compression:  opts.Compression,
			RowGroupSize: opts.RowGroupSize,
		})
	}
	return cmdCtx.Controller.ExportCSV(ctx, tableName, opts.Output, controller.CSVOptions{
		Delimiter: opts.Delimiter,
		NoHeader:  opts.NoHeader,
	})
}
