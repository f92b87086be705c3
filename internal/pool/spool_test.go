package pool

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpool_StaysInMemoryBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	s := NewBufferPool().NewSpool(osfs.New(dir), 16)

	_, err := io.WriteString(s, "0123456789abcdef")
	require.NoError(t, err)
	assert.False(t, s.Spilled())
	assert.Equal(t, int64(16), s.Len())

	r, err := s.Reader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NoError(t, s.Close())
}

func TestSpool_SpillsPastThreshold(t *testing.T) {
	dir := t.TempDir()
	s := NewBufferPool().NewSpool(osfs.New(dir), 16)

	_, err := io.WriteString(s, "0123456789")
	require.NoError(t, err)
	_, err = io.WriteString(s, strings.Repeat("x", 100))
	require.NoError(t, err)

	assert.True(t, s.Spilled())
	assert.Equal(t, int64(110), s.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), spoolPrefix))

	r, err := s.Reader()
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "0123456789"+strings.Repeat("x", 100), string(got))

	require.NoError(t, s.Close())
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file is removed on close")
}

func TestSpool_ZeroThresholdNeverSpills(t *testing.T) {
	s := NewBufferPool().NewSpool(nil, 0)

	_, err := io.WriteString(s, strings.Repeat("y", 1<<16))
	require.NoError(t, err)
	assert.False(t, s.Spilled())
	require.NoError(t, s.Close())
}

func TestSpool_SpillWithoutFilesystemFails(t *testing.T) {
	s := NewBufferPool().NewSpool(nil, 4)

	_, err := io.WriteString(s, "too long")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no temporary filesystem")
	require.NoError(t, s.Close())
}
