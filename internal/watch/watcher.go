// Package watch monitors a directory for new data files and imports them.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long to wait after the last write before importing,
// so partially written files are not picked up.
const debounceDelay = 500 * time.Millisecond

// ImportFunc imports a single data file. The format is "csv" or "parquet".
type ImportFunc func(ctx context.Context, path, format string) error

// Watcher watches a directory for CSV and Parquet files and triggers
// imports when they appear or change.
type Watcher struct {
	dir      string
	importFn ImportFunc
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a Watcher for the given directory.
func New(dir string, importFn ImportFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		dir:      dir,
		importFn: importFn,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// formatFor returns the import format for a path, or "" if the file
// is not a supported data file.
func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".parquet":
		return "parquet"
	}
	return ""
}

// Run watches the directory until the context is cancelled.
// Import failures for individual files are logged, not fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.logger.Info("watching directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			// An already-fired timer may still be importing
			w.wg.Wait()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			format := formatFor(event.Name)
			if format == "" {
				continue
			}
			w.schedule(ctx, event.Name, format)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// schedule debounces imports per file: repeated writes reset the timer.
func (w *Watcher) schedule(ctx context.Context, path, format string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		if timer.Stop() {
			w.wg.Done()
		}
	}
	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		defer w.wg.Done()

		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.logger.Info("importing file", "path", path, "format", format)
		if err := w.importFn(ctx, path, format); err != nil {
			w.logger.Error("import failed", "path", path, "error", err)
			return
		}
		w.logger.Info("import complete", "path", path)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}
