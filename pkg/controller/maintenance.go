package controller

import (
	"context"
	"fmt"
	"os"
)

// DatabaseStats reports storage statistics from PRAGMA database_size.
type DatabaseStats struct {
	DatabaseName string `json:"database_name"`
	DatabaseSize string `json:"database_size"`
	BlockSize    int64  `json:"block_size"`
	TotalBlocks  int64  `json:"total_blocks"`
	UsedBlocks   int64  `json:"used_blocks"`
	FreeBlocks   int64  `json:"free_blocks"`
	WALSize      string `json:"wal_size"`
	MemoryUsage  string `json:"memory_usage"`
	MemoryLimit  string `json:"memory_limit"`
}

// Vacuum reclaims free space.
func (c *Controller) Vacuum(ctx context.Context) error {
	if err := c.Exec(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	c.logger.Debug("vacuumed database")
	return nil
}

// Checkpoint flushes the write-ahead log into the database file.
// This is the operation DuckDB actually uses to reclaim space on disk.
func (c *Controller) Checkpoint(ctx context.Context) error {
	if err := c.Exec(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("failed to checkpoint database: %w", err)
	}
	c.logger.Debug("checkpointed database")
	return nil
}

// FileSize returns the size of the database file in bytes.
// Errors for in-memory databases.
func (c *Controller) FileSize() (int64, error) {
	if c.InMemory() {
		return 0, fmt.Errorf("database is in-memory, file size does not apply")
	}
	info, err := os.Stat(c.cfg.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat database file: %w", err)
	}
	return info.Size(), nil
}

// RemoveDatabaseFile closes the connection and deletes the database file.
// Refuses for in-memory databases and errors when the file is missing.
func (c *Controller) RemoveDatabaseFile() error {
	if c.InMemory() {
		return fmt.Errorf("database is in-memory, file deletion does not apply")
	}

	if _, err := os.Stat(c.cfg.Path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("database file %s does not exist", c.cfg.Path)
		}
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	if err := c.Close(); err != nil {
		return fmt.Errorf("failed to close database before deletion: %w", err)
	}

	c.logger.Info("deleting database file", "path", c.cfg.Path)
	if err := os.Remove(c.cfg.Path); err != nil {
		return fmt.Errorf("failed to delete database file: %w", err)
	}
	return nil
}

// Stats returns storage statistics for the attached database.
func (c *Controller) Stats(ctx context.Context) (*DatabaseStats, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	var stats DatabaseStats
	err := c.db.QueryRowContext(ctx, "PRAGMA database_size").Scan(
		&stats.DatabaseName,
		&stats.DatabaseSize,
		&stats.BlockSize,
		&stats.TotalBlocks,
		&stats.UsedBlocks,
		&stats.FreeBlocks,
		&stats.WALSize,
		&stats.MemoryUsage,
		&stats.MemoryLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query database stats: %w", err)
	}
	return &stats, nil
}

// DuckDBVersion returns the version string of the embedded engine.
func (c *Controller) DuckDBVersion(ctx context.Context) (string, error) {
	if c.db == nil {
		return "", fmt.Errorf("database connection not established")
	}
	var version string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to query duckdb version: %w", err)
	}
	return version, nil
}
