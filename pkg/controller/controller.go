// Package controller provides utilities and a controller for interacting
// with a DuckDB database: connection lifecycle, table and row operations,
// CSV/Parquet import and export, backups, and maintenance tasks.
package controller

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcboeker/go-duckdb"
)

// InMemoryPath is the path value for an in-memory DuckDB database.
const InMemoryPath = ":memory:"

// Config holds controller configuration.
type Config struct {
	// Path to the DuckDB database file, or ":memory:" (or empty) for an
	// in-memory database.
	Path string `mapstructure:"path"`

	// ReadOnly opens file databases with access_mode=read_only.
	// In-memory databases ignore this flag.
	ReadOnly bool `mapstructure:"read_only"`

	// Extensions to install and load (e.g., "httpfs", "json", "spatial")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`
}

// Controller manages a DuckDB database over database/sql.
// All operations are safe for concurrent use once Open has succeeded.
type Controller struct {
	db     *sql.DB
	cfg    Config
	logger *slog.Logger
}

// New creates a controller for the given configuration.
// A nil logger discards all log output.
func New(cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{cfg: cfg, logger: logger}
}

// Path returns the configured database path (":memory:" when in-memory).
func (c *Controller) Path() string {
	if c.cfg.Path == "" {
		return InMemoryPath
	}
	return c.cfg.Path
}

// InMemory reports whether the controller targets an in-memory database.
func (c *Controller) InMemory() bool {
	return c.Path() == InMemoryPath
}

// IsOpen reports whether the database connection is established.
func (c *Controller) IsOpen() bool {
	return c.db != nil
}

// Open establishes the DuckDB connection. Parent directories of a file
// database are created automatically unless the database is read-only.
// Extensions, settings, and secrets from the configuration are applied
// to every pooled connection.
func (c *Controller) Open(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	path := c.Path()
	if path != InMemoryPath && !c.cfg.ReadOnly {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := path
	if path != InMemoryPath && c.cfg.ReadOnly {
		dsn += "?access_mode=read_only"
	}

	boot := c.bootQueries()
	connector, err := duckdb.NewConnector(dsn, func(execer driver.ExecerContext) error {
		for _, q := range boot {
			if _, err := execer.ExecContext(context.Background(), q, nil); err != nil {
				return fmt.Errorf("failed to run boot query: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	db := sql.OpenDB(connector)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	c.logger.Debug("opened duckdb database", "path", path, "read_only", c.cfg.ReadOnly)
	c.db = db

	return nil
}

// Close closes the database connection.
func (c *Controller) Close() error {
	if c.db != nil {
		c.logger.Debug("closing database connection")
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// bootQueries builds the SQL statements run on every new pooled connection.
func (c *Controller) bootQueries() []string {
	var queries []string

	for _, ext := range c.cfg.Extensions {
		queries = append(queries,
			fmt.Sprintf("INSTALL %s", ext),
			fmt.Sprintf("LOAD %s", ext),
		)
	}

	// Sorted for deterministic ordering; Go maps are unordered.
	for _, key := range sortedKeys(c.cfg.Settings) {
		queries = append(queries, fmt.Sprintf("SET %s = '%s'", key, quoteString(c.cfg.Settings[key])))
	}

	for _, secret := range c.cfg.Secrets {
		queries = append(queries, buildCreateSecretSQL(secret))
	}

	return queries
}

// Exec executes a SQL statement that doesn't return rows.
func (c *Controller) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := c.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
// The caller must close the returned rows and check rows.Err() after
// iteration completes.
func (c *Controller) Query(ctx context.Context, sqlStr string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := c.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

// quoteIdent quotes an identifier with DuckDB double-quote escaping.
// Qualified names (schema.table) have each part quoted separately.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// quoteString escapes single quotes for embedding in a SQL string literal.
func quoteString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
