// Package fs defines the local filesystem abstraction the push engine reads
// its source tree through. Implementations live in subpackages; fs/billy
// provides OS-backed and in-memory trees.
package fs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is an open, readable file handle.
type File interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer

	Name() string
	Stat() (fs.FileInfo, error)
}

// Filesystem is the set of operations the push engine needs from a local
// tree. Paths are slash-separated and relative to the filesystem root.
type Filesystem interface {
	// Open opens the named file for reading.
	Open(name string) (File, error)

	// Stat returns file info for the named path.
	Stat(name string) (os.FileInfo, error)

	// Exists reports whether the named path exists.
	Exists(name string) (bool, error)

	// Walk walks the tree rooted at root in lexical order.
	Walk(root string, walkFn filepath.WalkFunc) error

	// ReadFile reads the whole named file.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string, perm os.FileMode) error

	// Remove removes the named file or empty directory.
	Remove(name string) error

	// Chroot returns a Filesystem rooted at the given subdirectory.
	Chroot(path string) (Filesystem, error)

	// Root returns the root of this filesystem as seen by the host.
	// In-memory filesystems return "/".
	Root() string
}
