package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, run RunFunc) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	w := New(dir, run, nil, WithInterval(20*time.Millisecond), WithQuiet(10*time.Millisecond))

	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx) }()

	// let the initial watches register
	time.Sleep(100 * time.Millisecond)
	return cancelFn, errCh
}

func TestWatcher_RunsAfterChange(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32

	cancel, done := startWatcher(t, dir, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32

	cancel, done := startWatcher(t, dir, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	defer func() {
		cancel()
		<-done
	}()

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	before := runs.Load()
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.txt"), []byte("b"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() > before }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_RunErrorKeepsWatching(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32

	cancel, done := startWatcher(t, dir, func(context.Context) error {
		runs.Add(1)
		return errors.New("provider unavailable")
	})
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("1"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	before := runs.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("2"), 0o644))
	assert.Eventually(t, func() bool { return runs.Load() > before }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), func(context.Context) error { return nil }, nil)
	err := w.Watch(context.Background())
	assert.Error(t, err)
}

func TestIgnored(t *testing.T) {
	assert.True(t, ignored("/x/.git"))
	assert.True(t, ignored("/x/file.swp"))
	assert.True(t, ignored("/x/file~"))
	assert.False(t, ignored("/x/index.html"))
	assert.False(t, ignored("/x/.well-known"))
}
