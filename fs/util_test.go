package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAbs(t *testing.T) {
	t.Run("absolute path passthrough", func(t *testing.T) {
		got, err := GetAbs("/tmp")
		require.NoError(t, err)
		assert.Equal(t, "/tmp", got)
	})

	t.Run("relative path conversion", func(t *testing.T) {
		got, err := GetAbs(".")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestExists(t *testing.T) {
	t.Run("existing file returns true", func(t *testing.T) {
		f, err := os.CreateTemp("", "fs-exists-*")
		require.NoError(t, err)
		t.Cleanup(func() { _ = os.Remove(f.Name()) })
		_ = f.Close()

		ok, err := Exists(f.Name())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing file returns false without error", func(t *testing.T) {
		ok, err := Exists(filepath.Join(t.TempDir(), "does-not-exist"))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
