package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/redduck/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *importRecorder) importFn(_ context.Context, path, format string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, format+":"+filepath.Base(path))
	return nil
}

func (r *importRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data.csv", "csv"},
		{"data.CSV", "csv"},
		{"data.parquet", "parquet"},
		{"data.txt", ""},
		{"data.csv.tmp", ""},
		{"noext", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFor(tt.path), tt.path)
	}
}

func TestWatcher_ImportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &importRecorder{}
	w := New(dir, rec.importFn, testutil.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.csv"), []byte("id\n1\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, []string{"csv:users.csv"}, rec.snapshot())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &importRecorder{}
	w := New(dir, rec.importFn, testutil.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "events.parquet")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0600))
		time.Sleep(50 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	// Writes within the debounce window collapse into one import
	time.Sleep(debounceDelay + 200*time.Millisecond)
	assert.Equal(t, []string{"parquet:events.parquet"}, rec.snapshot())
}

func TestWatcher_WaitsForInFlightImport(t *testing.T) {
	dir := t.TempDir()

	started := make(chan struct{})
	release := make(chan struct{})
	importFn := func(context.Context, string, string) error {
		close(started)
		<-release
		return nil
	}

	w := New(dir, importFn, testutil.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "slow.csv"), []byte("id\n1\n"), 0600))
	<-started

	// Cancel while the import is running; Run must not return yet
	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while an import was in flight")
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), func(context.Context, string, string) error { return nil }, nil)
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}
