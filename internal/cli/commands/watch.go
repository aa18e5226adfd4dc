package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/leapstack-labs/redduck/internal/watch"
	"github.com/leapstack-labs/redduck/pkg/controller"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var tableFlag string

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a directory and import new data files",
		Long: `Watch a directory for CSV and Parquet files and import each
one as it appears or changes. Each file goes into a table named
after the file, or into a single table with --table.

Runs until interrupted with Ctrl-C.`,
		Example: `  # Import each dropped file into its own table
  redduck watch ./incoming

  # Append everything into one table
  redduck watch ./incoming --table events`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], tableFlag)
		},
	}

	cmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Import all files into this table")

	return cmd
}

func runWatch(cmd *cobra.Command, dir, tableFlag string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	importFn := func(ctx context.Context, path, format string) error {
		tableName := tableFlag
		if tableName == "" {
			base := filepath.Base(path)
			tableName = strings.TrimSuffix(base, filepath.Ext(base))
		}

		detail := fmt.Sprintf("table=%s file=%s format=%s", tableName, path, format)
		return cmdCtx.Record("watch-import", detail, func() error {
			if format == "parquet" {
				return cmdCtx.Controller.ImportParquet(ctx, tableName, []string{path})
			}
			return cmdCtx.Controller.ImportCSV(ctx, tableName, []string{path}, controller.CSVOptions{})
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(dir, importFn, cmdCtx.Logger)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", dir)

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
