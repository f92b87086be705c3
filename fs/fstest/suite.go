// Package fstest provides a conformance suite for fs.Filesystem
// implementations.
//
// Example usage:
//
//	func TestMyFS(t *testing.T) {
//	    fstest.TestSuite(t, func() fs.Filesystem {
//	        return myfs.New()
//	    })
//	}
package fstest

import (
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
)

// TestSuite runs every conformance test against filesystems from newFS.
// Each call to newFS must return a fresh, empty filesystem.
func TestSuite(t *testing.T, newFS func() fs.Filesystem) {
	TestSuiteWithSkip(t, newFS, nil)
}

// TestSuiteWithSkip runs the suite, skipping the named groups ("ReadFS",
// "WriteFS", "WalkFS", "ChrootFS").
func TestSuiteWithSkip(t *testing.T, newFS func() fs.Filesystem, skipTests []string) {
	shouldSkip := func(name string) bool {
		for _, skip := range skipTests {
			if skip == name {
				return true
			}
		}
		return false
	}

	groups := []struct {
		name string
		run  func(*testing.T, fs.Filesystem)
	}{
		{"ReadFS", TestReadFS},
		{"WriteFS", TestWriteFS},
		{"WalkFS", TestWalkFS},
		{"ChrootFS", TestChrootFS},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if shouldSkip(g.name) {
				t.Skip("Skipped by provider configuration")
			}
			g.run(t, newFS())
		})
	}
}
