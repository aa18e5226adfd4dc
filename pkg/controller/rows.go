package controller

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ConstraintError reports a constraint violation during a write operation.
type ConstraintError struct {
	Table string
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation on table %s: %v", e.Table, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// isConstraintViolation matches DuckDB constraint errors by message; the
// driver does not expose a typed error for them.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Constraint Error")
}

// Fetch selects all rows from a table with an optional limit.
// A limit <= 0 means no limit. The caller must close the returned rows.
func (c *Controller) Fetch(ctx context.Context, table string, limit int) (*sql.Rows, error) {
	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(table)) //nolint:gosec // identifier is quoted
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return c.Query(ctx, query)
}

// Insert inserts rows into a table. Each row is a map of column name to
// value; column order is taken from the first row's sorted keys, so all
// rows must share the same columns. An empty slice is a no-op.
func (c *Controller) Insert(ctx context.Context, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}

	columns := sortedKeys(rows[0])

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders[i] = placeholder
		for _, col := range columns {
			args = append(args, row[col])
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return &ConstraintError{Table: table, Err: err}
		}
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	c.logger.Debug("inserted rows", "table", table, "rows", len(rows))
	return nil
}

// Update updates rows matching the condition. Set columns are applied in
// sorted order; the condition is a raw SQL predicate ("name = 'Bob'").
func (c *Controller) Update(ctx context.Context, table string, set map[string]any, condition string) error {
	if len(set) == 0 {
		return fmt.Errorf("no columns to update in %s", table)
	}
	if condition == "" {
		return fmt.Errorf("update on %s requires a condition; use Truncate to clear a table", table)
	}
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}

	columns := sortedKeys(set)
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = fmt.Sprintf("%s = ?", quoteIdent(col))
		args[i] = set[col]
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		quoteIdent(table),
		strings.Join(clauses, ", "),
		condition,
	)

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err) {
			return &ConstraintError{Table: table, Err: err}
		}
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// Delete removes rows matching the condition.
func (c *Controller) Delete(ctx context.Context, table string, condition string) error {
	if condition == "" {
		return fmt.Errorf("delete on %s requires a condition; use Truncate to clear a table", table)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(table), condition) //nolint:gosec // identifier is quoted
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// Truncate removes all rows from a table without dropping it.
func (c *Controller) Truncate(ctx context.Context, table string) error {
	query := fmt.Sprintf("DELETE FROM %s", quoteIdent(table)) //nolint:gosec // identifier is quoted
	if err := c.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	c.logger.Debug("truncated table", "table", table)
	return nil
}
