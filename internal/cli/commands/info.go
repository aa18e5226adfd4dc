package commands

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// InfoOutput is the JSON output for the info command.
type InfoOutput struct {
	Path          string `json:"path"`
	ReadOnly      bool   `json:"read_only"`
	DuckDBVersion string `json:"duckdb_version"`
	FileSize      int64  `json:"file_size,omitempty"`
	TableCount    int    `json:"table_count"`
	DatabaseSize  string `json:"database_size"`
	WALSize       string `json:"wal_size"`
	MemoryUsage   string `json:"memory_usage"`
	MemoryLimit   string `json:"memory_limit"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show database information and storage statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd)
		},
	}
}

func runInfo(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	ctrl := cmdCtx.Controller

	version, err := ctrl.DuckDBVersion(ctx)
	if err != nil {
		return err
	}
	stats, err := ctrl.Stats(ctx)
	if err != nil {
		return err
	}
	tables, err := ctrl.Tables(ctx)
	if err != nil {
		return err
	}

	info := InfoOutput{
		Path:          ctrl.Path(),
		ReadOnly:      cmdCtx.Cfg.Database.ReadOnly,
		DuckDBVersion: version,
		TableCount:    len(tables),
		DatabaseSize:  stats.DatabaseSize,
		WALSize:       stats.WALSize,
		MemoryUsage:   stats.MemoryUsage,
		MemoryLimit:   stats.MemoryLimit,
	}
	if !ctrl.InMemory() {
		if size, err := ctrl.FileSize(); err == nil {
			info.FileSize = size
		}
	}

	if cmdCtx.Cfg.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Database:       %s\n", info.Path)
	_, _ = fmt.Fprintf(out, "DuckDB version: %s\n", info.DuckDBVersion)
	_, _ = fmt.Fprintf(out, "Read-only:      %v\n", info.ReadOnly)
	_, _ = fmt.Fprintf(out, "Tables:         %d\n", info.TableCount)
	if info.FileSize > 0 {
		_, _ = fmt.Fprintf(out, "File size:      %s\n", humanize.Bytes(uint64(info.FileSize)))
	}
	_, _ = fmt.Fprintf(out, "Database size:  %s\n", info.DatabaseSize)
	_, _ = fmt.Fprintf(out, "WAL size:       %s\n", info.WALSize)
	_, _ = fmt.Fprintf(out, "Memory usage:   %s\n", info.MemoryUsage)
	_, _ = fmt.Fprintf(out, "Memory limit:   %s\n", info.MemoryLimit)

	return nil
}
