package fingerprint

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/pool"
)

type stubCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	puts    int
}

func (c *stubCache) Get(path string, size int64, modTime time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	sum, ok := c.entries[path]
	return sum, ok
}

func (c *stubCache) Put(path string, size int64, modTime time.Time, md5 string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.entries[path] = md5
	return nil
}

func TestFingerprinter_Sum(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("a.txt", []byte("hi"), 0o644))
	require.NoError(t, fsys.WriteFile("empty.txt", nil, 0o644))

	f := New(fsys, nil)

	t.Run("known content", func(t *testing.T) {
		fp, err := f.Sum("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "49f68a5c8493ec2c0bf489821c21fc3b", fp.MD5)
		assert.Equal(t, int64(2), fp.Size)
	})

	t.Run("empty file", func(t *testing.T) {
		fp, err := f.Sum("empty.txt")
		require.NoError(t, err)
		assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", fp.MD5)
		assert.Equal(t, int64(0), fp.Size)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := f.Sum("missing.txt")
		assert.Error(t, err)
	})
}

func TestFingerprinter_LargerThanChunk(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	data := bytes.Repeat([]byte("0123456789abcdef"), pool.ChunkSize/16+1000)
	require.NoError(t, fsys.WriteFile("big.bin", data, 0o644))

	f := New(fsys, nil)
	fromFile, err := f.Sum("big.bin")
	require.NoError(t, err)

	fromReader, err := f.SumReader(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, fromReader, fromFile)
	assert.Equal(t, int64(len(data)), fromFile.Size)
}

func TestFingerprinter_Deterministic(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("x.txt", []byte(strings.Repeat("x", 1024)), 0o644))
	f := New(fsys, nil)

	var wg sync.WaitGroup
	sums := make([]string, 8)
	for i := range sums {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp, err := f.Sum("x.txt")
			assert.NoError(t, err)
			sums[i] = fp.MD5
		}(i)
	}
	wg.Wait()

	for _, s := range sums {
		assert.Equal(t, sums[0], s)
	}
}

func TestFingerprinter_Cache(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("a.txt", []byte("hi"), 0o644))
	cache := &stubCache{entries: map[string]string{}}

	f := New(fsys, cache)

	first, err := f.Sum("a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)

	second, err := f.Sum("a.txt")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.puts, "cache hit must not re-store")
	assert.Equal(t, 2, cache.gets)
}
