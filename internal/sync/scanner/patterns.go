package scanner

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
)

// globMeta holds the characters doublestar treats specially.
const globMeta = "*?[]{}\\"

// TrimPathStart strips one leading "./" and then one leading "/".
func TrimPathStart(path string) string {
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}

// Pattern is a compiled glob pattern.
type Pattern struct {
	// Glob is the normalized pattern.
	Glob string

	// Base is the longest leading path with no glob metacharacters.
	Base string

	// Literal is set when the pattern has no glob metacharacters and names
	// a single path.
	Literal bool

	// dotOK allows matches with dot-prefixed segments.
	dotOK bool
}

// CompilePattern normalizes and validates a glob pattern.
func CompilePattern(raw string) (*Pattern, error) {
	glob := TrimPathStart(strings.TrimSpace(raw))
	if glob == "" {
		return nil, fmt.Errorf("%w: empty pattern", pusherrors.ErrInvalidPattern)
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("%w: %q", pusherrors.ErrInvalidPattern, raw)
	}

	base, _ := doublestar.SplitPattern(glob)

	return &Pattern{
		Glob:    glob,
		Base:    base,
		Literal: !strings.ContainsAny(glob, globMeta),
		dotOK:   strings.HasPrefix(glob, ".") || strings.Contains(glob, "/."),
	}, nil
}

// Match reports whether the slash-separated relative path matches.
func (p *Pattern) Match(path string) bool {
	if !p.dotOK && hasDotSegment(path) {
		return false
	}
	ok, err := doublestar.Match(p.Glob, path)
	return err == nil && ok
}

// SkipDir reports whether a directory can be pruned from the walk.
func (p *Pattern) SkipDir(dir string) bool {
	if p.dotOK || dir == p.Base {
		return false
	}
	name := dir
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		name = dir[i+1:]
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func hasDotSegment(path string) bool {
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
