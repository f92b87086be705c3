package scanner

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
)

// Scanner expands glob patterns against a filesystem.
type Scanner struct {
	filesystem fs.Filesystem
}

// NewScanner creates a scanner over filesystem.
func NewScanner(filesystem fs.Filesystem) *Scanner {
	return &Scanner{filesystem: filesystem}
}

// Expand returns the regular files matching any of patterns, normalized and
// de-duplicated. Order is pattern order, then lexical walk order.
// A malformed pattern or a walk failure aborts the expansion.
func (s *Scanner) Expand(ctx context.Context, patterns []string) ([]string, error) {
	compiled := make([]*Pattern, 0, len(patterns))
	for _, raw := range patterns {
		p, err := CompilePattern(raw)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, p)
	}

	var files []string
	seen := make(map[string]struct{})

	for _, p := range compiled {
		matches, err := s.expandOne(ctx, p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	return files, nil
}

func (s *Scanner) expandOne(ctx context.Context, p *Pattern) ([]string, error) {
	if p.Literal {
		return s.statLiteral(ctx, p)
	}

	exists, err := s.filesystem.Exists(p.Base)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", p.Base, err)
	}
	if !exists {
		return nil, nil
	}

	var matches []string
	err = s.filesystem.Walk(p.Base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel := TrimPathStart(filepath.ToSlash(path))
		if info.IsDir() {
			if p.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.isRegular(path, info) {
			return nil
		}

		if p.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", p.Glob, err)
	}

	return matches, nil
}

// statLiteral resolves a pattern naming one path without walking its parent.
func (s *Scanner) statLiteral(ctx context.Context, p *Pattern) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("expanding %q: %w", p.Glob, err)
	}

	name := path.Clean(p.Glob)
	info, err := s.filesystem.Stat(name)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if !info.Mode().IsRegular() || !p.Match(name) {
		return nil, nil
	}
	return []string{name}, nil
}

// isRegular reports whether path is a regular file, following symlinks.
func (s *Scanner) isRegular(path string, info os.FileInfo) bool {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := s.filesystem.Stat(path)
		if err != nil {
			return false
		}
		info = target
	}
	return info.Mode().IsRegular()
}
