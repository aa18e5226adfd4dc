package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// exportConcurrency bounds parallel COPY TO statements in ExportTables.
const exportConcurrency = 4

// CSVOptions holds options for CSV import and export.
type CSVOptions struct {
	// Delimiter between fields. Defaults to ",".
	Delimiter string
	// NoHeader disables the header row. Headers are on by default.
	NoHeader bool
}

func (o CSVOptions) delimiter() string {
	if o.Delimiter == "" {
		return ","
	}
	return o.Delimiter
}

// ParquetOptions holds options for Parquet export.
type ParquetOptions struct {
	// Compression codec. Defaults to "zstd".
	Compression string
	// RowGroupSize for written files. Defaults to 100_000.
	RowGroupSize int
}

func (o ParquetOptions) compression() string {
	if o.Compression == "" {
		return "zstd"
	}
	return o.Compression
}

func (o ParquetOptions) rowGroupSize() int {
	if o.RowGroupSize <= 0 {
		return 100_000
	}
	return o.RowGroupSize
}

// ImportCSV imports one or more CSV files into a table. The first file
// creates the table with DuckDB's automatic schema inference; remaining
// files are appended. An empty file list is a no-op.
func (c *Controller) ImportCSV(ctx context.Context, table string, files []string, opts CSVOptions) error {
	if len(files) == 0 {
		return nil
	}

	header := "true"
	if opts.NoHeader {
		header = "false"
	}

	for i, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}

		source := fmt.Sprintf(
			"read_csv_auto('%s', header=%s, delim='%s')",
			quoteString(absPath), header, quoteString(opts.delimiter()),
		)

		var query string
		if i == 0 {
			exists, err := c.TableExists(ctx, table)
			if err != nil {
				return err
			}
			if exists {
				query = fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", quoteIdent(table), source)
			} else {
				query = fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", quoteIdent(table), source)
			}
		} else {
			query = fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", quoteIdent(table), source)
		}

		if err := c.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to import CSV file %s: %w", f, err)
		}
		c.logger.Debug("imported csv file", "table", table, "file", f)
	}

	return nil
}

// ImportParquet imports one or more Parquet files into a table. The first
// file creates the table; remaining files are appended. An empty file list
// is a no-op.
func (c *Controller) ImportParquet(ctx context.Context, table string, files []string) error {
	if len(files) == 0 {
		return nil
	}

	for i, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}

		source := fmt.Sprintf("read_parquet('%s')", quoteString(absPath))

		var query string
		if i == 0 {
			exists, err := c.TableExists(ctx, table)
			if err != nil {
				return err
			}
			if exists {
				query = fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", quoteIdent(table), source)
			} else {
				query = fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", quoteIdent(table), source)
			}
		} else {
			query = fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", quoteIdent(table), source)
		}

		if err := c.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to import Parquet file %s: %w", f, err)
		}
		c.logger.Debug("imported parquet file", "table", table, "file", f)
	}

	return nil
}

// ExportCSV exports a table to a CSV file.
func (c *Controller) ExportCSV(ctx context.Context, table, path string, opts CSVOptions) error {
	header := "HEADER"
	if opts.NoHeader {
		header = "HEADER false"
	}
	query := fmt.Sprintf(
		"COPY %s TO '%s' WITH (FORMAT csv, %s, DELIMITER '%s')",
		quoteIdent(table), quoteString(path), header, quoteString(opts.delimiter()),
	)
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s to CSV: %w", table, err)
	}
	c.logger.Debug("exported table to csv", "table", table, "path", path)
	return nil
}

// ExportParquet exports a table to a Parquet file. A ".parquet" extension
// is appended when missing.
func (c *Controller) ExportParquet(ctx context.Context, table, path string, opts ParquetOptions) error {
	if !strings.HasSuffix(path, ".parquet") {
		path += ".parquet"
	}
	query := fmt.Sprintf(
		"COPY %s TO '%s' (FORMAT parquet, COMPRESSION %s, ROW_GROUP_SIZE %d)",
		quoteIdent(table), quoteString(path), opts.compression(), opts.rowGroupSize(),
	)
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to export %s to Parquet: %w", table, err)
	}
	c.logger.Debug("exported table to parquet", "table", table, "path", path)
	return nil
}

// ExportTables exports multiple tables to a directory, one file per table,
// running the COPY statements concurrently. Format is "csv" or "parquet".
func (c *Controller) ExportTables(ctx context.Context, tables []string, dir, format string) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)

	for _, table := range tables {
		g.Go(func() error {
			switch format {
			case "csv":
				return c.ExportCSV(ctx, table, filepath.Join(dir, table+".csv"), CSVOptions{})
			case "parquet":
				return c.ExportParquet(ctx, table, filepath.Join(dir, table+".parquet"), ParquetOptions{})
			default:
				return fmt.Errorf("unknown export format %q (accepted: csv, parquet)", format)
			}
		})
	}

	return g.Wait()
}
