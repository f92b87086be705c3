// Package encoding decides which content-encoded variants of a file to store
// and produces their compressed bytes.
package encoding

import (
	"path"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
)

// Planner selects encoding variants for destination keys. The zero value
// and a nil *Planner plan a single raw variant.
type Planner struct {
	opts *pushtypes.EncodingOptions
	fn   pushtypes.EncodingFunc
}

// NewPlanner creates a planner. At most one of opts and fn is used; fn wins
// when both are set.
func NewPlanner(opts *pushtypes.EncodingOptions, fn pushtypes.EncodingFunc) *Planner {
	if fn != nil {
		return &Planner{fn: fn}
	}
	return &Planner{opts: opts}
}

// Plan returns the variants to store for a file at destKey.
func (p *Planner) Plan(destKey string, size int64, mimeType string) []pushtypes.EncodingVariant {
	raw := []pushtypes.EncodingVariant{{Key: destKey, Encoding: pushtypes.EncodingRaw}}
	if p == nil {
		return raw
	}

	if p.fn != nil {
		if variants := p.fn(destKey, size, mimeType); len(variants) > 0 {
			return variants
		}
		return raw
	}

	if p.opts == nil || !p.matches(destKey, size, mimeType) {
		return raw
	}

	variants := make([]pushtypes.EncodingVariant, 0, len(p.opts.Encodings)+1)
	seen := make(map[pushtypes.Encoding]bool, len(p.opts.Encodings)+1)
	for _, enc := range p.opts.Encodings {
		if seen[enc] {
			continue
		}
		seen[enc] = true
		variants = append(variants, pushtypes.EncodingVariant{
			Key:      destKey + enc.Suffix(),
			Encoding: enc,
		})
	}
	if !seen[pushtypes.EncodingRaw] {
		variants = append(variants, raw[0])
	}

	return variants
}

func (p *Planner) matches(destKey string, size int64, mimeType string) bool {
	if size < p.opts.MinFileSize {
		return false
	}

	for _, ext := range p.opts.FileExtensions {
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" && strings.HasSuffix(destKey, "."+ext) {
			return true
		}
	}

	essence := mimeType
	if i := strings.IndexByte(essence, ';'); i >= 0 {
		essence = strings.TrimSpace(essence[:i])
	}
	for _, pattern := range p.opts.MIMETypes {
		if pattern == mimeType || pattern == essence {
			return true
		}
		if ok, err := path.Match(pattern, essence); err == nil && ok {
			return true
		}
	}

	return false
}

// PossibleKeys returns every key any encoding could derive from destKey.
func PossibleKeys(destKey string) []string {
	keys := []string{destKey}
	for _, enc := range pushtypes.CompressedEncodings() {
		keys = append(keys, destKey+enc.Suffix())
	}
	return keys
}
