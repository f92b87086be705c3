// Package pushtypes provides shared type definitions for the push module:
// configuration, functional options, encoding descriptors and results.
package pushtypes

import (
	"fmt"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// DefaultContentType is used when no MIME type can be determined for a file.
const DefaultContentType = "application/octet-stream"

// Encoding identifies one stored form of a local file.
type Encoding string

// Supported encodings.
const (
	EncodingRaw    Encoding = "raw"
	EncodingGzip   Encoding = "gzip"
	EncodingBrotli Encoding = "br"
	EncodingZstd   Encoding = "zstd"
)

// Suffix returns the key suffix used for variants of this encoding.
func (e Encoding) Suffix() string {
	switch e {
	case EncodingGzip:
		return ".gz"
	case EncodingBrotli:
		return ".br"
	case EncodingZstd:
		return ".zst"
	default:
		return ""
	}
}

// ContentEncoding returns the Content-Encoding header value, empty for raw.
func (e Encoding) ContentEncoding() string {
	if e == EncodingRaw {
		return ""
	}
	return string(e)
}

// ParseEncoding parses an encoding name. "brotli" and "zst" are accepted as
// aliases.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "raw", "identity":
		return EncodingRaw, nil
	case "gzip", "gz":
		return EncodingGzip, nil
	case "br", "brotli":
		return EncodingBrotli, nil
	case "zstd", "zst":
		return EncodingZstd, nil
	default:
		return "", fmt.Errorf("unknown encoding: %q", name)
	}
}

// CompressedEncodings lists every non-raw encoding.
func CompressedEncodings() []Encoding {
	return []Encoding{EncodingGzip, EncodingBrotli, EncodingZstd}
}

// EncodingVariant is one object a local file is stored as.
type EncodingVariant struct {
	// Key is the destination key of this variant.
	Key string

	// Encoding is how the raw bytes are transformed before upload.
	Encoding Encoding
}

// EncodingOptions configures declarative variant selection. A file gets
// compressed variants when it is at least MinFileSize bytes and matches one
// of FileExtensions or MIMETypes.
type EncodingOptions struct {
	// Encodings are the variants to produce for matching files. A raw
	// variant is always produced in addition.
	Encodings []Encoding

	// FileExtensions match the end of the destination key, with or without
	// a leading dot ("js", ".js", "d.ts").
	FileExtensions []string

	// MIMETypes match the content type exactly or as a path.Match pattern
	// ("text/*").
	MIMETypes []string

	// MinFileSize is the smallest file, in bytes, that gets compressed.
	MinFileSize int64
}

// EncodingFunc selects variants for a file. Returning no variants falls back
// to a single raw variant at destKey.
type EncodingFunc func(destKey string, size int64, mimeType string) []EncodingVariant

// Logger receives one line per skip, upload, delete and failure.
// *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// FingerprintCache remembers content hashes of local files between runs.
// An entry is valid only while size and modification time are unchanged.
type FingerprintCache interface {
	Get(path string, size int64, modTime time.Time) (md5 string, ok bool)
	Put(path string, size int64, modTime time.Time, md5 string) error
}

// Result reports what a push did. Lists are in processing order.
type Result struct {
	// Elapsed is the wall-clock duration of the whole push.
	Elapsed time.Duration

	// UploadedFiles are the local files read for at least one upload attempt.
	UploadedFiles []string

	// UploadedKeys are the keys written, one per uploaded variant.
	UploadedKeys []string

	// SkippedKeys are destination keys whose remote MD5 already matched.
	SkippedKeys []string

	// DeletedKeys are extra remote keys that were removed.
	DeletedKeys []string

	// ErrorKeys are keys whose read, upload or delete failed.
	ErrorKeys []string

	// BytesUploaded is the total body size of successful uploads.
	BytesUploaded int64

	// PeakConcurrency is the most per-file pipelines or deletions observed
	// running at once.
	PeakConcurrency int
}

// HasErrors reports whether any key failed.
func (r *Result) HasErrors() bool {
	return len(r.ErrorKeys) > 0
}

// Config holds push configuration. Literal-or-function settings are stored in
// function form; the With... options wrap literals in closures.
type Config struct {
	// Filesystem is the local tree files are read from. Defaults to the OS
	// filesystem rooted at WorkingDirectory.
	Filesystem fs.Filesystem

	// WorkingDirectory roots glob expansion and file reads.
	WorkingDirectory string

	// DestPathPrefix is prepended verbatim to every destination key and is
	// the prefix used to list remote state.
	DestPathPrefix string

	// Concurrency bounds in-flight per-file pipelines and deletions.
	Concurrency int

	// OnlyUploadChanges skips files whose remote MD5 matches.
	OnlyUploadChanges bool

	// DeleteExtraFiles, when set, decides whether a remote object with no
	// local counterpart is deleted. Nil disables deletion.
	DeleteExtraFiles func(storage.RemoteObject) bool

	// UploadNewFilesFirst processes files missing remotely before the rest.
	UploadNewFilesFirst bool

	// ListIncludeMetadata asks the provider for object metadata when listing.
	ListIncludeMetadata bool

	// IgnoreFile excludes matched files by logical name.
	IgnoreFile func(name string) bool

	// SubstituteFile maps a logical name to an alternate local source.
	SubstituteFile func(name string) (string, bool)

	// Metadata, Tags, CacheControl and MakePublic are resolved per local file.
	Metadata     func(name string) map[string]string
	Tags         func(name string) map[string]string
	CacheControl func(name string) string
	MakePublic   func(name string) bool

	// MIMETypes overrides content types by extension, as {mimeType: [ext]}.
	MIMETypes map[string][]string

	// EncodingOptions and EncodingFunc are mutually exclusive; setting one
	// clears the other.
	EncodingOptions *EncodingOptions
	EncodingFunc    EncodingFunc

	// DryRun logs uploads and deletes instead of performing them.
	DryRun bool

	// Logger receives progress lines. Defaults to a discarding logger.
	Logger Logger

	// FingerprintCache, when set, avoids re-hashing unchanged files.
	FingerprintCache FingerprintCache

	// SpoolThreshold is the compressed size in bytes above which a variant
	// is spooled to a temporary file instead of memory. Zero or less keeps
	// every variant in memory.
	SpoolThreshold int64
}

// Option is a functional option for configuring a push.
type Option func(*Config)
