// Package fingerprint computes the change-detection signature of local files:
// the MD5 of their raw bytes and their size. Files are streamed in
// pool.ChunkSize chunks and never loaded whole.
package fingerprint

import (
	"crypto/md5" //nolint:gosec // MD5 is the object-store content identity, not a security primitive.
	"encoding/hex"
	"fmt"
	"io"
	"path"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
)

// Fingerprint is the content identity of a local file.
type Fingerprint struct {
	MD5  string
	Size int64
}

// Fingerprinter hashes files from a filesystem.
type Fingerprinter struct {
	fs    fs.Filesystem
	pool  *pool.BufferPool
	cache pushtypes.FingerprintCache
}

// New creates a Fingerprinter reading from fsys. cache may be nil.
func New(fsys fs.Filesystem, cache pushtypes.FingerprintCache) *Fingerprinter {
	return &Fingerprinter{
		fs:    fsys,
		pool:  pool.Default(),
		cache: cache,
	}
}

// Sum returns the fingerprint of the named file.
func (f *Fingerprinter) Sum(name string) (Fingerprint, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opening %s: %w", name, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		return Fingerprint{}, fmt.Errorf("%s is a directory", name)
	}

	cacheKey := path.Join(f.fs.Root(), name)
	if f.cache != nil {
		if sum, ok := f.cache.Get(cacheKey, info.Size(), info.ModTime()); ok {
			return Fingerprint{MD5: sum, Size: info.Size()}, nil
		}
	}

	fp, err := f.hash(file)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hashing %s: %w", name, err)
	}

	if f.cache != nil && fp.Size == info.Size() {
		// a failed cache write only costs a re-hash next run
		_ = f.cache.Put(cacheKey, info.Size(), info.ModTime(), fp.MD5)
	}

	return fp, nil
}

// SumReader fingerprints an arbitrary stream.
func (f *Fingerprinter) SumReader(r io.Reader) (Fingerprint, error) {
	return f.hash(r)
}

func (f *Fingerprinter) hash(r io.Reader) (Fingerprint, error) {
	buf := f.pool.GetChunk()
	defer f.pool.PutChunk(buf)

	h := md5.New() //nolint:gosec // see import
	n, err := io.CopyBuffer(h, onlyReader{r}, buf)
	if err != nil {
		return Fingerprint{}, err
	}

	return Fingerprint{
		MD5:  hex.EncodeToString(h.Sum(nil)),
		Size: n,
	}, nil
}

// onlyReader hides io.WriterTo so CopyBuffer uses the pooled chunk.
type onlyReader struct {
	io.Reader
}
