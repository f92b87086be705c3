package push

import (
	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// WithFilesystem sets the local filesystem files are read from.
// Defaults to the OS filesystem rooted at the working directory.
func WithFilesystem(filesystem fs.Filesystem) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.Filesystem = filesystem
	}
}

// WithWorkingDirectory roots glob expansion and file reads at dir.
// With a custom filesystem, dir is resolved inside it via Chroot.
func WithWorkingDirectory(dir string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.WorkingDirectory = dir
	}
}

// WithDestPathPrefix sets the string prepended to every destination key.
// It is used verbatim, so include a trailing "/" for a folder.
func WithDestPathPrefix(prefix string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.DestPathPrefix = prefix
	}
}

// WithConcurrency sets how many files are processed at once.
// Default is 1, which processes files sequentially.
func WithConcurrency(concurrency int) pushtypes.Option {
	return func(c *pushtypes.Config) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithOnlyUploadChanges controls whether files whose remote MD5 matches are
// skipped. Default is true.
func WithOnlyUploadChanges(enabled bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.OnlyUploadChanges = enabled
	}
}

// WithDeleteExtraFiles deletes every remote object under the prefix that no
// local file produced. Default is false.
func WithDeleteExtraFiles(enabled bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		if !enabled {
			c.DeleteExtraFiles = nil
			return
		}
		c.DeleteExtraFiles = func(storage.RemoteObject) bool { return true }
	}
}

// WithDeleteExtraFilesFunc deletes extra remote objects for which fn returns
// true. A nil fn disables deletion.
func WithDeleteExtraFilesFunc(fn func(storage.RemoteObject) bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.DeleteExtraFiles = fn
	}
}

// WithUploadNewFilesFirst processes files missing from the remote before
// files that already exist there. Default is true.
func WithUploadNewFilesFirst(enabled bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.UploadNewFilesFirst = enabled
	}
}

// WithListIncludeMetadata asks the provider to include object metadata when
// listing, so DeleteExtraFiles predicates can inspect it.
func WithListIncludeMetadata(enabled bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.ListIncludeMetadata = enabled
	}
}

// WithIgnoreFile excludes files for which fn returns true. Ignored files are
// not uploaded, not counted and their keys are not protected from deletion.
func WithIgnoreFile(fn func(name string) bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.IgnoreFile = fn
	}
}

// WithSubstituteFile reads a file's content from another local path while
// keeping its destination key. fn returns the alternate path and true to
// substitute.
func WithSubstituteFile(fn func(name string) (string, bool)) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.SubstituteFile = fn
	}
}

// WithMetadata stores the same user metadata on every object.
func WithMetadata(metadata map[string]string) pushtypes.Option {
	return WithMetadataFunc(func(string) map[string]string { return metadata })
}

// WithMetadataFunc resolves user metadata per local file.
func WithMetadataFunc(fn func(name string) map[string]string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.Metadata = fn
	}
}

// WithTags applies the same tags to every object.
func WithTags(tags map[string]string) pushtypes.Option {
	return WithTagsFunc(func(string) map[string]string { return tags })
}

// WithTagsFunc resolves tags per local file.
func WithTagsFunc(fn func(name string) map[string]string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.Tags = fn
	}
}

// WithCacheControl sets the same Cache-Control header on every object.
func WithCacheControl(value string) pushtypes.Option {
	return WithCacheControlFunc(func(string) string { return value })
}

// WithCacheControlFunc resolves the Cache-Control header per local file.
func WithCacheControlFunc(fn func(name string) string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.CacheControl = fn
	}
}

// WithMakePublic makes every object publicly readable.
func WithMakePublic(public bool) pushtypes.Option {
	return WithMakePublicFunc(func(string) bool { return public })
}

// WithMakePublicFunc decides public readability per local file.
func WithMakePublicFunc(fn func(name string) bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.MakePublic = fn
	}
}

// WithMIMETypes overrides content types by extension, as
// {"application/typescript": {"ts", "tsx"}}.
func WithMIMETypes(types map[string][]string) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.MIMETypes = types
	}
}

// WithEncoding selects compressed variants declaratively. It replaces any
// encoding function set earlier.
func WithEncoding(opts pushtypes.EncodingOptions) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.EncodingOptions = &opts
		c.EncodingFunc = nil
	}
}

// WithEncodingFunc selects variants with fn. It replaces any declarative
// encoding options set earlier.
func WithEncodingFunc(fn pushtypes.EncodingFunc) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.EncodingFunc = fn
		c.EncodingOptions = nil
	}
}

// WithDryRun logs uploads and deletes instead of performing them. Remote
// listing still happens.
func WithDryRun(enabled bool) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.DryRun = enabled
	}
}

// WithLogger sets the logger for progress and failure lines.
// *slog.Logger satisfies pushtypes.Logger.
func WithLogger(logger pushtypes.Logger) pushtypes.Option {
	return func(c *pushtypes.Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithFingerprintCache reuses content hashes of files unchanged since a
// previous run.
func WithFingerprintCache(cache pushtypes.FingerprintCache) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.FingerprintCache = cache
	}
}

// WithSpoolThreshold sets the compressed size above which variants are
// staged in a temporary file before upload.
func WithSpoolThreshold(bytes int64) pushtypes.Option {
	return func(c *pushtypes.Config) {
		c.SpoolThreshold = bytes
	}
}
