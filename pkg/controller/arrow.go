package controller

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/marcboeker/go-duckdb"
)

// The Arrow bridge materializes query results as columnar records and
// bulk-loads records back through the driver's appender. Column types are
// widened to a canonical set: integers to int64, floats to float64,
// booleans, timestamps, and everything else stringified.

// arrowTypeFor maps a DuckDB column type name to the canonical Arrow type.
func arrowTypeFor(dbType string) arrow.DataType {
	t := strings.ToUpper(dbType)
	switch {
	case t == "TINYINT" || t == "SMALLINT" || t == "INTEGER" || t == "BIGINT" ||
		t == "HUGEINT" || t == "UTINYINT" || t == "USMALLINT" || t == "UINTEGER" || t == "UBIGINT":
		return arrow.PrimitiveTypes.Int64
	case t == "FLOAT" || t == "DOUBLE" || t == "REAL" || strings.HasPrefix(t, "DECIMAL"):
		return arrow.PrimitiveTypes.Float64
	case t == "BOOLEAN":
		return arrow.FixedWidthTypes.Boolean
	case strings.HasPrefix(t, "TIMESTAMP"):
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// duckdbTypeFor maps a canonical Arrow type back to a DuckDB column type.
func duckdbTypeFor(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT64:
		return "BIGINT"
	case arrow.FLOAT64:
		return "DOUBLE"
	case arrow.BOOL:
		return "BOOLEAN"
	case arrow.TIMESTAMP:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

// TableRecord materializes all rows of a table into an Arrow record.
// The caller must Release the returned record.
func (c *Controller) TableRecord(ctx context.Context, table string) (arrow.Record, error) {
	return c.QueryRecord(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(table))) //nolint:gosec // identifier is quoted
}

// QueryRecord executes a query and materializes the result into an Arrow
// record. The caller must Release the returned record.
func (c *Controller) QueryRecord(ctx context.Context, sqlStr string, args ...any) (arrow.Record, error) {
	rows, err := c.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	fields := make([]arrow.Field, len(colTypes))
	for i, ct := range colTypes {
		fields[i] = arrow.Field{
			Name:     ct.Name(),
			Type:     arrowTypeFor(ct.DatabaseTypeName()),
			Nullable: true,
		}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	values := make([]any, len(colTypes))
	ptrs := make([]any, len(colTypes))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if err := appendValue(builder.Field(i), v); err != nil {
				return nil, fmt.Errorf("column %s: %w", fields[i].Name, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return builder.NewRecord(), nil
}

// appendValue appends a scanned database value to the matching builder,
// coercing to the canonical widened type.
func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch fb := b.(type) {
	case *array.Int64Builder:
		switch n := v.(type) {
		case int64:
			fb.Append(n)
		case int32:
			fb.Append(int64(n))
		case int16:
			fb.Append(int64(n))
		case int8:
			fb.Append(int64(n))
		case int:
			fb.Append(int64(n))
		case uint64:
			fb.Append(int64(n))
		case uint32:
			fb.Append(int64(n))
		case *big.Int:
			// HUGEINT scans as *big.Int
			fb.Append(n.Int64())
		default:
			return fmt.Errorf("unexpected integer value of type %T", v)
		}
	case *array.Float64Builder:
		switch f := v.(type) {
		case float64:
			fb.Append(f)
		case float32:
			fb.Append(float64(f))
		case int64:
			fb.Append(float64(f))
		case duckdb.Decimal:
			// DECIMAL scans as duckdb.Decimal
			fb.Append(f.Float64())
		default:
			return fmt.Errorf("unexpected float value of type %T", v)
		}
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("unexpected boolean value of type %T", v)
		}
		fb.Append(bv)
	case *array.TimestampBuilder:
		tv, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("unexpected timestamp value of type %T", v)
		}
		fb.Append(arrow.Timestamp(tv.UnixMicro()))
	case *array.StringBuilder:
		switch s := v.(type) {
		case string:
			fb.Append(s)
		case []byte:
			fb.Append(string(s))
		default:
			fb.Append(fmt.Sprintf("%v", s))
		}
	default:
		return fmt.Errorf("unsupported builder type %T", b)
	}
	return nil
}

// InsertRecord bulk-loads an Arrow record into a table through the
// driver-native appender. The table is created from the record schema
// when it does not exist. The appender is flushed and closed even when a
// row fails.
func (c *Controller) InsertRecord(ctx context.Context, table string, rec arrow.Record) error {
	if c.db == nil {
		return fmt.Errorf("database connection not established")
	}

	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		schema := rec.Schema()
		defs := make([]ColumnDef, schema.NumFields())
		for i, f := range schema.Fields() {
			defs[i] = ColumnDef{Name: f.Name, Type: duckdbTypeFor(f.Type)}
		}
		if err := c.CreateTable(ctx, table, defs); err != nil {
			return err
		}
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection type %T", driverConn)
		}

		appender, err := duckdb.NewAppenderFromConn(dc, "", table)
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}

		var rowErr error
		numRows := int(rec.NumRows())
		numCols := int(rec.NumCols())
		row := make([]driver.Value, numCols)

		for i := 0; i < numRows; i++ {
			for j := 0; j < numCols; j++ {
				row[j] = recordValue(rec.Column(j), i)
			}
			if err := appender.AppendRow(row...); err != nil {
				rowErr = fmt.Errorf("failed to append row %d: %w", i, err)
				break
			}
		}

		if err := appender.Close(); err != nil && rowErr == nil {
			rowErr = fmt.Errorf("failed to flush appender: %w", err)
		}
		if rowErr == nil {
			c.logger.Debug("appended record", "table", table, "rows", numRows)
		}
		return rowErr
	})
}

// recordValue extracts a row value from an Arrow column as a driver value.
func recordValue(col arrow.Array, i int) driver.Value {
	if col.IsNull(i) {
		return nil
	}
	switch arr := col.(type) {
	case *array.Int64:
		return arr.Value(i)
	case *array.Float64:
		return arr.Value(i)
	case *array.Boolean:
		return arr.Value(i)
	case *array.Timestamp:
		return arr.Value(i).ToTime(arrow.Microsecond)
	case *array.String:
		return arr.Value(i)
	default:
		return col.ValueStr(i)
	}
}
