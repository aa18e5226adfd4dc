package commands

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRows builds *sql.Rows for render tests without a live database.
func mockRows(t *testing.T, cols []string, rows [][]driver.Value) *sql.Rows {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mockRs := sqlmock.NewRows(cols)
	for _, row := range rows {
		mockRs.AddRow(row...)
	}
	mock.ExpectQuery("SELECT").WillReturnRows(mockRs)

	result, err := db.Query("SELECT")
	require.NoError(t, err)
	return result
}

func TestRenderResults_Table(t *testing.T) {
	rows := mockRows(t, []string{"id", "name"}, [][]driver.Value{
		{1, "alice"},
		{2, nil},
	})

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, rows, "table"))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderResults_JSON(t *testing.T) {
	rows := mockRows(t, []string{"id", "name"}, [][]driver.Value{
		{1, "alice"},
	})

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, rows, "json"))

	assert.Contains(t, buf.String(), `"name": "alice"`)
}

func TestRenderResults_CSV(t *testing.T) {
	rows := mockRows(t, []string{"id", "note"}, [][]driver.Value{
		{1, `has,comma and "quote"`},
	})

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, rows, "csv"))

	out := buf.String()
	assert.Contains(t, out, "id,note")
	assert.Contains(t, out, `"has,comma and ""quote"""`)
}

func TestRenderResults_Markdown(t *testing.T) {
	rows := mockRows(t, []string{"id", "name"}, [][]driver.Value{
		{1, "alice"},
	})

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, rows, "md"))

	out := buf.String()
	assert.Contains(t, out, "| id | name |")
	assert.Contains(t, out, "| --- | --- |")
	assert.Contains(t, out, "| 1 | alice |")
}

func TestRenderResults_EmptyResult(t *testing.T) {
	rows := mockRows(t, []string{"id"}, nil)

	var buf bytes.Buffer
	require.NoError(t, renderResults(&buf, rows, "table"))
	assert.Contains(t, buf.String(), "(0 rows)")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "42", formatValue(42))
	assert.Equal(t, "x", formatValue("x"))
}

func TestEscapeCSV(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"has,comma", `"has,comma"`},
		{`has"quote`, `"has""quote"`},
		{"has\nnewline", "\"has\nnewline\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeCSV(tt.in))
	}
}
