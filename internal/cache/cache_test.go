package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.FileExists(t, path)
}

func TestCache_GetPut(t *testing.T) {
	mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("miss on empty cache", func(t *testing.T) {
		c := testCache(t)
		_, ok := c.Get("/site/index.html", 10, mtime)
		assert.False(t, ok)
	})

	t.Run("hit when size and mtime match", func(t *testing.T) {
		c := testCache(t)
		require.NoError(t, c.Put("/site/index.html", 10, mtime, "abc"))

		md5, ok := c.Get("/site/index.html", 10, mtime)
		assert.True(t, ok)
		assert.Equal(t, "abc", md5)
	})

	t.Run("miss when size changed", func(t *testing.T) {
		c := testCache(t)
		require.NoError(t, c.Put("/site/index.html", 10, mtime, "abc"))

		_, ok := c.Get("/site/index.html", 11, mtime)
		assert.False(t, ok)
	})

	t.Run("miss when mtime changed", func(t *testing.T) {
		c := testCache(t)
		require.NoError(t, c.Put("/site/index.html", 10, mtime, "abc"))

		_, ok := c.Get("/site/index.html", 10, mtime.Add(time.Nanosecond))
		assert.False(t, ok)
	})

	t.Run("put overwrites", func(t *testing.T) {
		c := testCache(t)
		require.NoError(t, c.Put("/site/a.js", 1, mtime, "old"))
		require.NoError(t, c.Put("/site/a.js", 2, mtime, "new"))

		md5, ok := c.Get("/site/a.js", 2, mtime)
		assert.True(t, ok)
		assert.Equal(t, "new", md5)
		assert.Equal(t, 1, c.Len())
	})
}

func TestCache_Delete(t *testing.T) {
	c := testCache(t)
	mtime := time.Now()
	require.NoError(t, c.Put("a", 1, mtime, "x"))
	require.NoError(t, c.Delete("a"))
	require.NoError(t, c.Delete("never-stored"))

	_, ok := c.Get("a", 1, mtime)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	mtime := time.Unix(1700000000, 42)

	c1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c1.Put("/root/file.txt", 5, mtime, "d41d8cd9"))
	require.NoError(t, c1.Close())

	c2, err := Open(path)
	require.NoError(t, err)
	defer c2.Close()

	md5, ok := c2.Get("/root/file.txt", 5, mtime)
	assert.True(t, ok)
	assert.Equal(t, "d41d8cd9", md5)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "fingerprints.db", filepath.Base(DefaultPath()))
}
