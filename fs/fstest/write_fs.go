package fstest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
)

// TestWriteFS tests WriteFile, MkdirAll and Remove.
func TestWriteFS(t *testing.T, filesystem fs.Filesystem) {
	t.Run("WriteFileOverwrites", func(t *testing.T) {
		if err := filesystem.WriteFile("w.txt", []byte("first"), 0o644); err != nil {
			t.Fatalf("WriteFile(): got error %v", err)
		}
		if err := filesystem.WriteFile("w.txt", []byte("2"), 0o644); err != nil {
			t.Fatalf("WriteFile(overwrite): got error %v", err)
		}
		data, err := filesystem.ReadFile("w.txt")
		if err != nil {
			t.Fatalf("ReadFile(): got error %v", err)
		}
		if string(data) != "2" {
			t.Errorf("ReadFile() after overwrite: got %q, want %q", data, "2")
		}
	})

	t.Run("MkdirAll", func(t *testing.T) {
		if err := filesystem.MkdirAll("a/b/c", 0o755); err != nil {
			t.Fatalf("MkdirAll(a/b/c): got error %v", err)
		}
		if err := filesystem.MkdirAll("a/b/c", 0o755); err != nil {
			t.Errorf("MkdirAll(a/b/c) again: got error %v, want nil", err)
		}
		info, err := filesystem.Stat("a/b")
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(a/b): got (%v, %v), want directory", info, err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := filesystem.WriteFile("gone.txt", []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile(): got error %v", err)
		}
		if err := filesystem.Remove("gone.txt"); err != nil {
			t.Fatalf("Remove(): got error %v", err)
		}
		if ok, _ := filesystem.Exists("gone.txt"); ok {
			t.Errorf("Exists(gone.txt) after Remove = true, want false")
		}
	})
}

// TestWalkFS tests that Walk visits every entry in lexical order.
func TestWalkFS(t *testing.T, filesystem fs.Filesystem) {
	files := map[string]string{
		"site/index.html":   "<html>",
		"site/css/main.css": "body{}",
		"site/b.txt":        "b",
		"site/a.txt":        "a",
	}
	for name, content := range files {
		if err := filesystem.MkdirAll(filepath.Dir(name), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s): setup failed: %v", name, err)
		}
		if err := filesystem.WriteFile(name, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): setup failed: %v", name, err)
		}
	}

	var got []string
	err := filesystem.Walk("site", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			got = append(got, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk(site): got error %v", err)
	}

	want := []string{"site/a.txt", "site/b.txt", "site/css/main.css", "site/index.html"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk(site): got %v, want %v", got, want)
	}

	t.Run("SkipDir", func(t *testing.T) {
		var visited []string
		err := filesystem.Walk("site", func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && filepath.Base(path) == "css" {
				return filepath.SkipDir
			}
			if !info.IsDir() {
				visited = append(visited, filepath.ToSlash(path))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk(site): got error %v", err)
		}
		if len(visited) != 3 {
			t.Errorf("Walk with SkipDir visited %v, want 3 files", visited)
		}
	})
}

// TestChrootFS tests that a chrooted filesystem resolves paths relative to
// the new root.
func TestChrootFS(t *testing.T, filesystem fs.Filesystem) {
	if err := filesystem.MkdirAll("root/sub", 0o755); err != nil {
		t.Fatalf("MkdirAll(): setup failed: %v", err)
	}
	if err := filesystem.WriteFile("root/sub/file.txt", []byte("inner"), 0o644); err != nil {
		t.Fatalf("WriteFile(): setup failed: %v", err)
	}

	sub, err := filesystem.Chroot("root")
	if err != nil {
		t.Fatalf("Chroot(root): got error %v", err)
	}

	data, err := sub.ReadFile("sub/file.txt")
	if err != nil {
		t.Fatalf("chroot ReadFile(sub/file.txt): got error %v", err)
	}
	if string(data) != "inner" {
		t.Errorf("chroot ReadFile(): got %q, want %q", data, "inner")
	}

	if ok, _ := sub.Exists("root"); ok {
		t.Errorf("chroot Exists(root) = true, want false")
	}
	if sub.Root() == filesystem.Root() {
		t.Errorf("chroot Root() = %q, want it to differ from parent root", sub.Root())
	}
}
