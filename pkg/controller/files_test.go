package controller

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()

	t.Run("no files is a no-op", func(t *testing.T) {
		ctrl := openTestController(t, Config{})
		require.NoError(t, ctrl.ImportCSV(ctx, "empty", nil, CSVOptions{}))

		exists, err := ctrl.TableExists(ctx, "empty")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("first file creates, second appends", func(t *testing.T) {
		ctrl := openTestController(t, Config{})
		dir := t.TempDir()
		f1 := writeCSV(t, dir, "a.csv", "id,name,value\n1,alice,100.5\n2,bob,200.75\n")
		f2 := writeCSV(t, dir, "b.csv", "id,name,value\n3,charlie,300.25\n")

		require.NoError(t, ctrl.ImportCSV(ctx, "people", []string{f1, f2}, CSVOptions{}))

		count, err := ctrl.Count(ctx, "people")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		// Schema was inferred, not all-VARCHAR
		meta, err := ctrl.Metadata(ctx, "people")
		require.NoError(t, err)
		assert.Len(t, meta.Columns, 3)
	})

	t.Run("existing table gets appended", func(t *testing.T) {
		ctrl := openTestController(t, Config{})
		dir := t.TempDir()
		f := writeCSV(t, dir, "a.csv", "id,name,value\n1,alice,100.5\n")

		require.NoError(t, ctrl.ImportCSV(ctx, "people", []string{f}, CSVOptions{}))
		require.NoError(t, ctrl.ImportCSV(ctx, "people", []string{f}, CSVOptions{}))

		count, err := ctrl.Count(ctx, "people")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		ctrl := openTestController(t, Config{})
		dir := t.TempDir()
		f := writeCSV(t, dir, "semi.csv", "id;name\n1;alice\n")

		require.NoError(t, ctrl.ImportCSV(ctx, "semi", []string{f}, CSVOptions{Delimiter: ";"}))

		cols, err := ctrl.Columns(ctx, "semi")
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, cols)
	})
}

func TestExportImportCSV_Roundtrip(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)

	out := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, ctrl.ExportCSV(ctx, "users", out, CSVOptions{}))

	_, err := os.Stat(out)
	require.NoError(t, err)

	require.NoError(t, ctrl.ImportCSV(ctx, "users_copy", []string{out}, CSVOptions{}))
	count, err := ctrl.Count(ctx, "users_copy")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestExportImportParquet_Roundtrip(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)

	// Extension appended when missing
	base := filepath.Join(t.TempDir(), "users")
	require.NoError(t, ctrl.ExportParquet(ctx, "users", base, ParquetOptions{}))

	out := base + ".parquet"
	_, err := os.Stat(out)
	require.NoError(t, err)

	require.NoError(t, ctrl.ImportParquet(ctx, "users_copy", []string{out}))
	count, err := ctrl.Count(ctx, "users_copy")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestImportParquet_MultipleFiles(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)

	dir := t.TempDir()
	f1 := filepath.Join(dir, "one.parquet")
	f2 := filepath.Join(dir, "two.parquet")
	require.NoError(t, ctrl.ExportParquet(ctx, "users", f1, ParquetOptions{}))
	require.NoError(t, ctrl.ExportParquet(ctx, "users", f2, ParquetOptions{}))

	require.NoError(t, ctrl.ImportParquet(ctx, "combined", []string{f1, f2}))

	count, err := ctrl.Count(ctx, "combined")
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)
}

func TestImportParquet_NoFiles(t *testing.T) {
	ctrl := openTestController(t, Config{})
	require.NoError(t, ctrl.ImportParquet(context.Background(), "empty", nil))
}

func TestExportTables(t *testing.T) {
	ctx := context.Background()
	ctrl := openTestController(t, Config{})
	seedUsersTable(t, ctrl)
	require.NoError(t, ctrl.Exec(ctx, "CREATE TABLE orders AS SELECT 1 AS id, 42.5 AS amount"))

	t.Run("csv", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, ctrl.ExportTables(ctx, []string{"users", "orders"}, dir, "csv"))
		for _, name := range []string{"users.csv", "orders.csv"} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("parquet", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, ctrl.ExportTables(ctx, []string{"users", "orders"}, dir, "parquet"))
		for _, name := range []string{"users.parquet", "orders.parquet"} {
			_, err := os.Stat(filepath.Join(dir, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		err := ctrl.ExportTables(ctx, []string{"users"}, t.TempDir(), "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "csv, parquet")
	})
}
