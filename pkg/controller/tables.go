package controller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Column describes a single table column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// TableMetadata describes a table: its schema, columns, and row count.
type TableMetadata struct {
	Schema   string   `json:"schema"`
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int64    `json:"row_count"`
}

// ColumnDef defines a column for CreateTable. The type is a raw DuckDB
// type expression and may carry constraints ("INTEGER PRIMARY KEY").
type ColumnDef struct {
	Name string
	Type string
}

// parseQualifiedName splits a table reference into schema and name,
// defaulting to the main schema.
func parseQualifiedName(table string) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "main", table
}

// Tables lists all table names in the main schema.
func (c *Controller) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// Columns returns the column names of a table in ordinal order.
func (c *Controller) Columns(ctx context.Context, table string) ([]string, error) {
	schema, name := parseQualifiedName(table)
	rows, err := c.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return columns, nil
}

// TableExists checks whether a table exists.
func (c *Controller) TableExists(ctx context.Context, table string) (bool, error) {
	if c.db == nil {
		return false, fmt.Errorf("database connection not established")
	}
	schema, name := parseQualifiedName(table)

	var one int
	err := c.db.QueryRowContext(ctx, `
		SELECT 1
		FROM information_schema.tables
		WHERE table_schema = ? AND table_name = ?
	`, schema, name).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return true, nil
}

// CreateTable creates a table with the given columns, in order.
// Uses IF NOT EXISTS so creating an existing table is a no-op.
func (c *Controller) CreateTable(ctx context.Context, table string, columns []ColumnDef) error {
	if len(columns) == 0 {
		return fmt.Errorf("cannot create table %s with no columns", table)
	}

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), col.Type)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	c.logger.Debug("created table", "table", table, "columns", len(columns))
	return nil
}

// DropTable drops a table if it exists.
func (c *Controller) DropTable(ctx context.Context, table string) error {
	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(table))
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	c.logger.Debug("dropped table", "table", table)
	return nil
}

// Count returns the number of rows in a table.
func (c *Controller) Count(ctx context.Context, table string) (int64, error) {
	if c.db == nil {
		return 0, fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table)) //nolint:gosec // identifier is quoted
	var count int64
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// Metadata retrieves column metadata and row count for a table.
func (c *Controller) Metadata(ctx context.Context, table string) (*TableMetadata, error) {
	if c.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, name := parseQualifiedName(table)

	rows, err := c.db.QueryContext(ctx, `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	// Get row count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", quoteIdent(schema), quoteIdent(name)) //nolint:gosec // identifiers are quoted
	var rowCount int64
	if err := c.db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		rowCount = 0
	}

	return &TableMetadata{
		Schema:   schema,
		Name:     name,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}
