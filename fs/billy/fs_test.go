package billy

import (
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	parentfs "github.com/input-output-hk/catalyst-forge-libs/push/fs"
	"github.com/input-output-hk/catalyst-forge-libs/push/fs/fstest"
)

func TestInMemoryFS_Conformance(t *testing.T) {
	fstest.TestSuite(t, func() parentfs.Filesystem {
		return NewInMemoryFS()
	})
}

func TestOSFS_Conformance(t *testing.T) {
	fstest.TestSuite(t, func() parentfs.Filesystem {
		return NewOSFS(t.TempDir())
	})
}

func TestOSFS_Root(t *testing.T) {
	root := t.TempDir()
	fs := NewOSFS(root)
	assert.Equal(t, root, fs.Root())

	sub, err := fs.Chroot("public")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "public"), sub.Root())
}

func TestNewFS_WrapsExisting(t *testing.T) {
	raw := memfs.New()
	fs := NewFS(raw)
	assert.Same(t, raw, fs.Raw())

	require.NoError(t, fs.WriteFile("x.txt", []byte("x"), 0o644))
	_, err := raw.Stat("x.txt")
	assert.NoError(t, err)
}

func TestFS_ErrorsNameThePath(t *testing.T) {
	fs := NewInMemoryFS()

	_, err := fs.Stat("nope.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `billy: stat "nope.txt"`)

	_, err = fs.ReadFile("nope.txt")
	assert.Error(t, err)
}
