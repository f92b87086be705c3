package fstest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
)

// TestReadFS tests Open, Stat, Exists and ReadFile, and the io.ReaderAt and
// io.Seeker behavior of opened files that fingerprinting and uploads rely on.
func TestReadFS(t *testing.T, filesystem fs.Filesystem) {
	content := []byte("abcdef")

	if err := filesystem.MkdirAll("testdir", 0o755); err != nil {
		t.Fatalf("MkdirAll(testdir): setup failed: %v", err)
	}
	if err := filesystem.WriteFile("testdir/testfile.txt", content, 0o644); err != nil {
		t.Fatalf("WriteFile(testdir/testfile.txt): setup failed: %v", err)
	}

	t.Run("Open", func(t *testing.T) {
		testReadFSOpen(t, filesystem, content)
	})
	t.Run("SeekAndReadAt", func(t *testing.T) {
		testReadFSSeek(t, filesystem)
	})
	t.Run("Stat", func(t *testing.T) {
		testReadFSStat(t, filesystem, content)
	})
	t.Run("ReadFile", func(t *testing.T) {
		data, err := filesystem.ReadFile("testdir/testfile.txt")
		if err != nil {
			t.Fatalf("ReadFile(): got error %v, want nil", err)
		}
		if !bytes.Equal(data, content) {
			t.Errorf("ReadFile(): got %q, want %q", data, content)
		}
	})
	t.Run("Exists", func(t *testing.T) {
		testReadFSExists(t, filesystem)
	})
	t.Run("OpenNotExist", func(t *testing.T) {
		_, err := filesystem.Open("does-not-exist.txt")
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Open(does-not-exist.txt): got error %v, want os.ErrNotExist", err)
		}
	})
}

func testReadFSOpen(t *testing.T, filesystem fs.Filesystem, content []byte) {
	f, err := filesystem.Open("testdir/testfile.txt")
	if err != nil {
		t.Fatalf("Open(%q): got error %v, want nil", "testdir/testfile.txt", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll(): got error %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Errorf("ReadAll(): got %q, want %q", data, content)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("File.Stat(): got error %v", err)
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("File.Stat(): Size() = %d, want %d", info.Size(), len(content))
	}
}

func testReadFSSeek(t *testing.T, filesystem fs.Filesystem) {
	f, err := filesystem.Open("testdir/testfile.txt")
	if err != nil {
		t.Fatalf("Open(): got error %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(3, io.SeekStart); err != nil {
		t.Fatalf("Seek(3): got error %v", err)
	}
	rest, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll(): got error %v", err)
	}
	if string(rest) != "def" {
		t.Errorf("read after Seek(3): got %q, want %q", rest, "def")
	}

	buf := make([]byte, 2)
	if _, err := f.ReadAt(buf, 1); err != nil {
		t.Fatalf("ReadAt(1): got error %v", err)
	}
	if string(buf) != "bc" {
		t.Errorf("ReadAt(1): got %q, want %q", buf, "bc")
	}
}

func testReadFSStat(t *testing.T, filesystem fs.Filesystem, content []byte) {
	info, err := filesystem.Stat("testdir/testfile.txt")
	if err != nil {
		t.Fatalf("Stat(file): got error %v", err)
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		t.Errorf("Stat(file): mode = %v, want regular file", info.Mode())
	}
	if info.Size() != int64(len(content)) {
		t.Errorf("Stat(file): Size() = %d, want %d", info.Size(), len(content))
	}

	info, err = filesystem.Stat("testdir")
	if err != nil {
		t.Fatalf("Stat(dir): got error %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Stat(dir): IsDir() = false, want true")
	}
}

func testReadFSExists(t *testing.T, filesystem fs.Filesystem) {
	for name, want := range map[string]bool{
		"testdir/testfile.txt": true,
		"testdir":              true,
		"missing":              false,
	} {
		got, err := filesystem.Exists(name)
		if err != nil {
			t.Errorf("Exists(%q): got error %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("Exists(%q) = %v, want %v", name, got, want)
		}
	}
}
