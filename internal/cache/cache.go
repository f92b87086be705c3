// Package cache persists local file fingerprints in a bbolt database so that
// repeated pushes of an unchanged tree skip re-hashing.
package cache

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	bolt "go.etcd.io/bbolt"

	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
)

const (
	dirPerm     = fs.FileMode(0o700)
	filePerm    = fs.FileMode(0o600)
	openTimeout = 5 * time.Second
)

var fingerprintsBucket = []byte("fingerprints")

// entry is the stored form of one fingerprint.
type entry struct {
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
	MD5   string `json:"md5"`
}

// Cache is a bbolt-backed pushtypes.FingerprintCache. It is safe for
// concurrent use.
type Cache struct {
	db *bolt.DB
}

var _ pushtypes.FingerprintCache = (*Cache)(nil)

// Open opens the cache database at path, creating it and its directory if
// needed.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := bolt.Open(path, filePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(fingerprintsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache db: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the stored MD5 for path if size and modTime still match.
// Read errors and corrupt entries are reported as misses.
func (c *Cache) Get(path string, size int64, modTime time.Time) (string, bool) {
	var e entry
	found := false

	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(fingerprintsBucket).Get([]byte(path))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	if err != nil || !found {
		return "", false
	}

	if e.Size != size || e.MTime != modTime.UnixNano() || e.MD5 == "" {
		return "", false
	}
	return e.MD5, true
}

// Put stores md5 for path at the given size and modification time.
func (c *Cache) Put(path string, size int64, modTime time.Time, md5 string) error {
	data, err := json.Marshal(entry{Size: size, MTime: modTime.UnixNano(), MD5: md5})
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fingerprintsBucket).Put([]byte(path), data)
	})
}

// Delete removes the entry for path.
func (c *Cache) Delete(path string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(fingerprintsBucket).Delete([]byte(path))
	})
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	n := 0
	_ = c.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(fingerprintsBucket).Stats().KeyN
		return nil
	})
	return n
}

// DefaultPath returns the cache location under the XDG cache directory.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "snap-push", "fingerprints.db")
}
