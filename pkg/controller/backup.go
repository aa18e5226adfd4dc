package controller

import (
	"context"
	"fmt"
	"strings"
)

// BackupOptions holds options for Backup.
type BackupOptions struct {
	// Format is "csv" or "parquet". Defaults to "csv".
	Format string
	// Delimiter for CSV backups. Defaults to ",".
	Delimiter string
	// Compression codec for Parquet backups. Defaults to "zstd".
	Compression string
	// RowGroupSize for Parquet backups. Defaults to 100_000.
	RowGroupSize int
}

func (o BackupOptions) format() string {
	if o.Format == "" {
		return "csv"
	}
	return strings.ToLower(o.Format)
}

// Backup exports the whole database (schema and data) to a directory
// using EXPORT DATABASE.
func (c *Controller) Backup(ctx context.Context, dir string, opts BackupOptions) error {
	var query string

	switch opts.format() {
	case "csv":
		delim := opts.Delimiter
		if delim == "" {
			delim = ","
		}
		query = fmt.Sprintf(
			"EXPORT DATABASE '%s' (FORMAT csv, DELIMITER '%s')",
			quoteString(dir), quoteString(delim),
		)
	case "parquet":
		po := ParquetOptions{Compression: opts.Compression, RowGroupSize: opts.RowGroupSize}
		query = fmt.Sprintf(
			"EXPORT DATABASE '%s' (FORMAT parquet, COMPRESSION %s, ROW_GROUP_SIZE %d)",
			quoteString(dir), po.compression(), po.rowGroupSize(),
		)
	default:
		return fmt.Errorf("unknown backup format %q (accepted: csv, parquet)", opts.Format)
	}

	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to back up database to %s: %w", dir, err)
	}

	c.logger.Info("database backed up", "dir", dir, "format", opts.format())
	return nil
}

// Restore loads schema and data from a directory written by Backup,
// using IMPORT DATABASE. Conflicts with existing objects surface as
// DuckDB errors unchanged.
func (c *Controller) Restore(ctx context.Context, dir string) error {
	query := fmt.Sprintf("IMPORT DATABASE '%s'", quoteString(dir))
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to restore database from %s: %w", dir, err)
	}
	c.logger.Info("database restored", "dir", dir)
	return nil
}
