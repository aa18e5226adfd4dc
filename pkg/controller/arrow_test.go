package controller

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRecord(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})

	require.NoError(t, ctrl.Exec(ctx, `
		CREATE TABLE mixed (
			id BIGINT,
			score DOUBLE,
			active BOOLEAN,
			name VARCHAR,
			seen TIMESTAMP
		)
	`))
	require.NoError(t, ctrl.Exec(ctx, `
		INSERT INTO mixed VALUES
			(1, 1.5, true, 'alpha', TIMESTAMP '2024-01-01 12:00:00'),
			(2, 2.5, false, 'beta', NULL),
			(NULL, NULL, NULL, NULL, NULL)
	`))

	rec, err := ctrl.QueryRecord(ctx, "SELECT * FROM mixed ORDER BY id")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(5), rec.NumCols())

	schema := rec.Schema()
	assert.Equal(t, arrow.PrimitiveTypes.Int64, schema.Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, schema.Field(1).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, schema.Field(2).Type)
	assert.Equal(t, arrow.BinaryTypes.String, schema.Field(3).Type)
	assert.Equal(t, arrow.FixedWidthTypes.Timestamp_us, schema.Field(4).Type)

	ids := rec.Column(0).(*array.Int64)
	assert.Equal(t, int64(1), ids.Value(0))
	assert.Equal(t, int64(2), ids.Value(1))
	assert.True(t, ids.IsNull(2))

	names := rec.Column(3).(*array.String)
	assert.Equal(t, "alpha", names.Value(0))
}

func TestQueryRecord_WidensNarrowTypes(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})

	rec, err := ctrl.QueryRecord(ctx, "SELECT 1::INTEGER AS i, 2.5::FLOAT AS f")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, arrow.PrimitiveTypes.Int64, rec.Schema().Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Float64, rec.Schema().Field(1).Type)
	assert.Equal(t, int64(1), rec.Column(0).(*array.Int64).Value(0))
	assert.InEpsilon(t, 2.5, rec.Column(1).(*array.Float64).Value(0), 0.001)
}

func TestQueryRecord_DecimalAndHugeint(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})

	rec, err := ctrl.QueryRecord(ctx, "SELECT 1.50::DECIMAL(10,2) AS price, 5::HUGEINT AS big")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, arrow.PrimitiveTypes.Float64, rec.Schema().Field(0).Type)
	assert.Equal(t, arrow.PrimitiveTypes.Int64, rec.Schema().Field(1).Type)
	assert.InEpsilon(t, 1.5, rec.Column(0).(*array.Float64).Value(0), 0.001)
	assert.Equal(t, int64(5), rec.Column(1).(*array.Int64).Value(0))
}

func TestTableRecord(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)

	rec, err := ctrl.TableRecord(ctx, "users")
	require.NoError(t, err)
	defer rec.Release()

	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, int64(3), rec.NumCols())
}

func TestInsertRecord_Roundtrip(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)

	rec, err := ctrl.TableRecord(ctx, "users")
	require.NoError(t, err)
	defer rec.Release()

	// Table created from the record schema
	require.NoError(t, ctrl.InsertRecord(ctx, "users_arrow", rec))

	count, err := ctrl.Count(ctx, "users_arrow")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	meta, err := ctrl.Metadata(ctx, "users_arrow")
	require.NoError(t, err)
	assert.Len(t, meta.Columns, 3)

	// Appending into the existing table
	require.NoError(t, ctrl.InsertRecord(ctx, "users_arrow", rec))
	count, err = ctrl.Count(ctx, "users_arrow")
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}
