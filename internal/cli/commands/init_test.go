package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, NewInitCommand(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")
	assert.Contains(t, out, "Next steps")

	data, err := os.ReadFile(filepath.Join(dir, "redduck.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "database:")
	assert.Contains(t, content, "path: data/redduck.duckdb")
	assert.Contains(t, content, "history_path: .redduck/history.db")
	assert.Contains(t, content, "format: table")
}

func TestInitCommand_ExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "redduck.yaml"), []byte("format: json\n"), 0600))

	_, err := runCommand(t, NewInitCommand(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// --force overwrites
	_, err = runCommand(t, NewInitCommand(), dir, "--force")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "redduck.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "format: table")
}

func TestInitCommand_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new-project")

	_, err := runCommand(t, NewInitCommand(), dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "redduck.yaml"))
}
