package commands

import (
	"fmt"

	"github.com/leapstack-labs/redduck/pkg/controller"
	"github.com/spf13/cobra"
)

// BackupOptions holds options for the backup command.
type BackupOptions struct {
	Format       string
	Delimiter    string
	Compression  string
	RowGroupSize int
}

// NewBackupCommand creates the backup command.
func NewBackupCommand() *cobra.Command {
	opts := &BackupOptions{}

	cmd := &cobra.Command{
		Use:   "backup <directory>",
		Short: "Back up the whole database to a directory",
		Long: `Export the entire database (schema and data) to a directory
using DuckDB's EXPORT DATABASE. Each backup is recorded in the
operation catalog so 'redduck restore --latest' can find it.`,
		Example: `  # CSV backup
  redduck backup ./backups/2026-08-24

  # Parquet backup
  redduck backup ./backups/2026-08-24 --format parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "csv", "Backup format: csv or parquet")
	cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "CSV delimiter (default: ,)")
	cmd.Flags().StringVar(&opts.Compression, "compression", "", "Parquet compression codec (default: zstd)")
	cmd.Flags().IntVar(&opts.RowGroupSize, "row-group-size", 0, "Parquet row group size")

	return cmd
}

func runBackup(cmd *cobra.Command, dir string, opts *BackupOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	detail := fmt.Sprintf("dir=%s format=%s", dir, opts.Format)
	return cmdCtx.Record("backup", detail, func() error {
		err := cmdCtx.Controller.Backup(cmd.Context(), dir, controller.BackupOptions{
			Format:       opts.Format,
			Delimiter:    opts.Delimiter,
			Compression:  opts.Compression,
			RowGroupSize: opts.RowGroupSize,
		})
		if err != nil {
			return err
		}

		if _, err := cmdCtx.History.RecordBackup(dir, opts.Format); err != nil {
			cmdCtx.Logger.Warn("failed to record backup in catalog", "error", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backed up database to %s\n", dir)
		return nil
	})
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "restore [directory]",
		Short: "Restore the database from a backup directory",
		Long: `Import a backup created with 'redduck backup' into the database
using DuckDB's IMPORT DATABASE. With --latest, the most recent
backup from the operation catalog is used.`,
		Example: `  # Restore a specific backup
  redduck restore ./backups/2026-08-24

  # Restore the most recent recorded backup
  redduck restore --latest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, args, latest)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "Restore the most recent recorded backup")

	return cmd
}

func runRestore(cmd *cobra.Command, args []string, latest bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var dir string
	switch {
	case latest && len(args) > 0:
		return fmt.Errorf("specify a directory or --latest, not both")
	case latest:
		b, err := cmdCtx.History.LatestBackup()
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("no backups recorded")
		}
		dir = b.Path
	case len(args) == 1:
		dir = args[0]
	default:
		return fmt.Errorf("specify a backup directory or --latest")
	}

	return cmdCtx.Record("restore", "dir="+dir, func() error {
		if err := cmdCtx.Controller.Restore(cmd.Context(), dir); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored database from %s\n", dir)
		return nil
	})
}
