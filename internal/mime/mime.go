// Package mime resolves the content type of a local file. Lookup order is
// the caller's override table, the built-in extension table, an HTML marker
// sniff, then content sniffing with mimetype.
package mime

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
)

const (
	// htmlSniffChars is how much of a file is searched for HTML markers.
	htmlSniffChars = 200

	// contentSniffBytes is how much of a file mimetype inspects.
	contentSniffBytes = 512
)

// Overrides maps a content type to the extensions that should resolve to it,
// e.g. {"application/typescript": {"ts"}}.
type Overrides map[string][]string

// Detect returns the content type for name, or "" when nothing is known.
func Detect(fsys fs.Filesystem, name string, overrides Overrides) string {
	if ct := ByExtension(name, overrides); ct != "" {
		return ct
	}
	if fsys == nil {
		return ""
	}
	return sniff(fsys, name)
}

// ByExtension resolves a content type from the text after the last '.' in
// name. Overrides take priority over the built-in table.
func ByExtension(name string, overrides Overrides) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	ext := name[i+1:]

	if ct := lookup(overrides, ext); ct != "" {
		return ct
	}
	return standardTypes[ext]
}

// lookup scans the override table in sorted content-type order so a
// conflicting extension always resolves the same way.
func lookup(overrides Overrides, ext string) string {
	best := ""
	for ct, exts := range overrides {
		for _, e := range exts {
			if strings.TrimPrefix(e, ".") == ext && (best == "" || ct < best) {
				best = ct
			}
		}
	}
	return best
}

func sniff(fsys fs.Filesystem, name string) string {
	f, err := fsys.Open(name)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, contentSniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return ""
	}
	head := buf[:n]

	text := head
	if len(text) > htmlSniffChars {
		text = text[:htmlSniffChars]
	}
	lower := strings.ToLower(string(text))
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<!doctype html>") {
		return standardTypes["html"]
	}

	mt := mimetype.Detect(head)
	switch {
	case mt == nil:
		return ""
	case mt.Is("application/octet-stream"), mt.Is("text/plain"):
		return ""
	default:
		return mt.String()
	}
}
