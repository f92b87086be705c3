// Package watch re-runs a push whenever files under a directory change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// DefaultInterval is how often pending changes are checked.
	DefaultInterval = 500 * time.Millisecond

	// DefaultQuiet is how long the tree must be idle before a run starts.
	DefaultQuiet = 300 * time.Millisecond
)

// RunFunc is invoked once per batch of changes.
type RunFunc func(ctx context.Context) error

// Watcher watches a directory tree recursively and calls its RunFunc after
// bursts of filesystem events settle.
type Watcher struct {
	dir      string
	run      RunFunc
	logger   *slog.Logger
	interval time.Duration
	quiet    time.Duration
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the debounce tick.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithQuiet sets the idle period required before a run.
func WithQuiet(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.quiet = d
		}
	}
}

// New creates a watcher for dir. A nil logger discards output.
func New(dir string, run RunFunc, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Watcher{
		dir:      dir,
		run:      run,
		logger:   logger,
		interval: DefaultInterval,
		quiet:    DefaultQuiet,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks until ctx is cancelled, calling the RunFunc after changes.
// Run errors are logged and do not stop the watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.watcher = watcher
	defer watcher.Close()

	if err := w.addRecursive(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.logger.Info("file watcher started", slog.String("dir", w.dir))

	var lastEvent time.Time
	dirty := false

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			dirty = true
			lastEvent = time.Now()

			// Lstat so symlinked directories outside the tree are not followed.
			if event.Has(fsnotify.Create) {
				info, err := os.Lstat(event.Name)
				if err == nil && info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
					_ = w.addRecursive(event.Name)
				}
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				_ = watcher.Remove(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if !dirty || time.Since(lastEvent) < w.quiet {
				continue
			}
			dirty = false

			w.logger.Info("change detected, pushing")
			if err := w.run(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("push failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignored(path) {
			return filepath.SkipDir
		}
		if d.Type()&os.ModeSymlink != 0 {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// ignored reports editor swap files and VCS directories.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case base == ".git", base == "node_modules":
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"):
		return true
	}
	return false
}
