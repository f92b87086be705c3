package push

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gobilly "github.com/go-git/go-billy/v5"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/fs"
	"github.com/input-output-hk/catalyst-forge-libs/push/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/encoding"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/fingerprint"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/mime"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/sync/executor"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/sync/planner"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/dryrun"
)

// Pusher pushes local files to one storage provider. A Pusher is immutable
// after New and may run several pushes, sequentially or concurrently.
type Pusher struct {
	provider storage.Provider
	config   pushtypes.Config
	logger   pushtypes.Logger

	fs            fs.Filesystem
	scanner       *scanner.Scanner
	fingerprinter *fingerprint.Fingerprinter
	encodings     *encoding.Planner
	pool          *pool.BufferPool
	spoolFS       gobilly.Filesystem
}

// DefaultSpoolThreshold is the default SpoolThreshold (32MiB).
const DefaultSpoolThreshold = 32 * 1024 * 1024

// New creates a Pusher for provider.
//
// Example:
//
//	p, err := push.New(provider,
//	    push.WithDestPathPrefix("site/"),
//	    push.WithConcurrency(4),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := p.Push(ctx, []string{"**/*"})
func New(provider storage.Provider, opts ...pushtypes.Option) (*Pusher, error) {
	if provider == nil {
		return nil, pusherrors.NewError("new", pusherrors.ErrNilProvider)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := executor.ValidateConcurrency(cfg.Concurrency); err != nil {
		return nil, pusherrors.NewError("new", fmt.Errorf("%w: %v", pusherrors.ErrInvalidInput, err))
	}

	filesystem, err := resolveFilesystem(&cfg)
	if err != nil {
		return nil, pusherrors.NewError("new", err)
	}

	if cfg.DryRun {
		provider = dryrun.New(provider, cfg.Logger)
	}

	return &Pusher{
		provider:      provider,
		config:        cfg,
		logger:        cfg.Logger,
		fs:            filesystem,
		scanner:       scanner.NewScanner(filesystem),
		fingerprinter: fingerprint.New(filesystem, cfg.FingerprintCache),
		encodings:     encoding.NewPlanner(cfg.EncodingOptions, cfg.EncodingFunc),
		pool:          pool.Default(),
		spoolFS:       billy.NewOSFS(os.TempDir()).Raw(),
	}, nil
}

// Push expands files against the configured filesystem and reconciles the
// matches with the remote prefix in a single call.
func Push(
	ctx context.Context,
	provider storage.Provider,
	files []string,
	opts ...pushtypes.Option,
) (*pushtypes.Result, error) {
	p, err := New(provider, opts...)
	if err != nil {
		return nil, err
	}
	return p.Push(ctx, files)
}

func defaultConfig() pushtypes.Config {
	return pushtypes.Config{
		Concurrency:         executor.DefaultConcurrency,
		OnlyUploadChanges:   true,
		UploadNewFilesFirst: true,
		Logger:              slog.New(slog.DiscardHandler),
		SpoolThreshold:      DefaultSpoolThreshold,
	}
}

func resolveFilesystem(cfg *pushtypes.Config) (fs.Filesystem, error) {
	wd := cfg.WorkingDirectory

	if cfg.Filesystem == nil {
		if wd == "" {
			wd = "."
		}
		abs, err := fs.GetAbs(wd)
		if err != nil {
			return nil, err
		}
		ok, err := fs.Exists(abs)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: working directory %s does not exist", pusherrors.ErrInvalidInput, abs)
		}
		return billy.NewOSFS(abs), nil
	}

	if wd == "" || wd == "." {
		return cfg.Filesystem, nil
	}
	sub, err := cfg.Filesystem.Chroot(wd)
	if err != nil {
		return nil, fmt.Errorf("working directory %s: %w", wd, err)
	}
	return sub, nil
}

// Push reconciles the files matching the glob patterns with the remote
// prefix. Per-file and per-delete failures are reported in the result's
// ErrorKeys. An error is returned when patterns cannot be expanded, remote
// state cannot be listed or ctx is cancelled; in the last case the partial
// result is returned as well.
func (p *Pusher) Push(ctx context.Context, files []string) (*pushtypes.Result, error) {
	start := time.Now()
	cfg := &p.config

	if len(files) == 0 {
		return nil, pusherrors.NewError("push", pusherrors.ErrNoFiles)
	}

	matched, err := p.scanner.Expand(ctx, files)
	if err != nil {
		return nil, pusherrors.NewError("glob", err)
	}

	var remote []storage.RemoteObject
	index := planner.RemoteIndex{}
	if cfg.OnlyUploadChanges || cfg.DeleteExtraFiles != nil || cfg.UploadNewFilesFirst {
		remote, err = p.provider.List(ctx, cfg.DestPathPrefix, cfg.ListIncludeMetadata)
		if err != nil {
			return nil, fmt.Errorf("listing remote prefix %q: %w", cfg.DestPathPrefix, err)
		}
		index = planner.NewRemoteIndex(remote)
	}

	if cfg.UploadNewFilesFirst {
		matched = planner.NewFilesFirst(matched, p.destKey, index)
	}

	exec := executor.New(cfg.Concurrency)
	processed := planner.NewKeySet()
	result := &pushtypes.Result{}

	outcomes, err := executor.Run(ctx, exec, len(matched), func(ctx context.Context, i int) fileOutcome {
		return p.processFile(ctx, matched[i], index, processed)
	})
	for _, o := range outcomes {
		o.record(result)
	}
	if err != nil {
		result.Elapsed = time.Since(start)
		result.PeakConcurrency = exec.Stats().PeakConcurrency
		return result, pusherrors.NewError("push", err)
	}

	if cfg.DeleteExtraFiles != nil {
		extras := planner.ExtraObjects(remote, processed, cfg.DeleteExtraFiles)
		deletions, err := executor.Run(ctx, exec, len(extras), func(ctx context.Context, i int) deleteOutcome {
			return p.deleteExtra(ctx, extras[i].Key)
		})
		for _, d := range deletions {
			d.record(result)
		}
		if err != nil {
			result.Elapsed = time.Since(start)
			result.PeakConcurrency = exec.Stats().PeakConcurrency
			return result, pusherrors.NewError("delete", err)
		}
	}

	result.Elapsed = time.Since(start)
	result.PeakConcurrency = exec.Stats().PeakConcurrency
	return result, nil
}

func (p *Pusher) destKey(name string) string {
	return p.config.DestPathPrefix + name
}

// fileOutcome is what one file pipeline contributes to the result.
type fileOutcome struct {
	localFile    string
	uploadedKeys []string
	skippedKey   string
	errorKeys    []string
	bytes        int64
}

func (o fileOutcome) record(r *pushtypes.Result) {
	if o.localFile != "" {
		r.UploadedFiles = append(r.UploadedFiles, o.localFile)
	}
	if o.skippedKey != "" {
		r.SkippedKeys = append(r.SkippedKeys, o.skippedKey)
	}
	r.UploadedKeys = append(r.UploadedKeys, o.uploadedKeys...)
	r.ErrorKeys = append(r.ErrorKeys, o.errorKeys...)
	r.BytesUploaded += o.bytes
}

type deleteOutcome struct {
	key     string
	deleted bool
}

func (o deleteOutcome) record(r *pushtypes.Result) {
	if o.deleted {
		r.DeletedKeys = append(r.DeletedKeys, o.key)
	} else {
		r.ErrorKeys = append(r.ErrorKeys, o.key)
	}
}

func (p *Pusher) processFile(
	ctx context.Context,
	name string,
	index planner.RemoteIndex,
	processed *planner.KeySet,
) fileOutcome {
	cfg := &p.config

	if cfg.IgnoreFile != nil && cfg.IgnoreFile(name) {
		return fileOutcome{}
	}

	destKey := p.destKey(name)

	src := p.localSource(name)
	if cfg.SubstituteFile != nil {
		if alt, ok := cfg.SubstituteFile(name); ok {
			src = p.substituteSource(alt)
		}
	}
	local := src.display

	contentType := mime.Detect(src.fs, src.name, cfg.MIMETypes)
	if contentType == "" {
		contentType = pushtypes.DefaultContentType
	}

	fp, err := src.fingerprinter.Sum(src.name)
	if err != nil {
		processed.Add(encoding.PossibleKeys(destKey)...)
		p.logger.Error("file read failed", "file", local, "key", destKey, "error", err)
		return fileOutcome{errorKeys: []string{destKey}}
	}

	variants := p.encodings.Plan(destKey, fp.Size, contentType)
	for _, v := range variants {
		processed.Add(v.Key)
	}

	if cfg.OnlyUploadChanges && index.Unchanged(destKey, fp.MD5) {
		p.logger.Info("skipping unchanged file", "file", local, "key", destKey)
		return fileOutcome{skippedKey: destKey}
	}

	base := p.baseRequest(local, contentType, fp)
	out := fileOutcome{localFile: local}

	for _, v := range variants {
		n, err := p.uploadVariant(ctx, src, v, base)
		if err != nil {
			p.logger.Error("upload failed", "file", local, "key", v.Key, "error", err)
			out.errorKeys = append(out.errorKeys, v.Key)
			continue
		}
		p.logger.Info("uploaded", "file", local, "key", v.Key, "encoding", string(v.Encoding), "size", n)
		out.uploadedKeys = append(out.uploadedKeys, v.Key)
		out.bytes += n
	}

	return out
}

// fileSource is where the bytes for one destination key are read from.
// display is the name reported in the result and handed to the per-file
// callbacks.
type fileSource struct {
	fs            fs.Filesystem
	fingerprinter *fingerprint.Fingerprinter
	name          string
	display       string
}

func (p *Pusher) localSource(name string) fileSource {
	return fileSource{fs: p.fs, fingerprinter: p.fingerprinter, name: name, display: name}
}

// substituteSource resolves an alternate source path. Relative paths that
// stay inside the working tree are read through the push filesystem.
// Absolute paths, and relative paths that climb out of the tree, are read
// from the host.
func (p *Pusher) substituteSource(alt string) fileSource {
	if !filepath.IsAbs(alt) {
		rel := path.Clean(filepath.ToSlash(alt))
		if rel != ".." && !strings.HasPrefix(rel, "../") {
			return p.localSource(rel)
		}
		alt = filepath.Join(p.fs.Root(), filepath.FromSlash(rel))
	}

	abs := filepath.Clean(alt)
	host := billy.NewOSFS(filepath.Dir(abs))
	return fileSource{
		fs:            host,
		fingerprinter: fingerprint.New(host, p.config.FingerprintCache),
		name:          filepath.Base(abs),
		display:       abs,
	}
}

// baseRequest resolves the per-file fields shared by every variant.
func (p *Pusher) baseRequest(local, contentType string, fp fingerprint.Fingerprint) storage.UploadRequest {
	cfg := &p.config
	req := storage.UploadRequest{
		ContentType:   contentType,
		ContentLength: fp.Size,
		MD5:           fp.MD5,
	}
	if cfg.Metadata != nil {
		req.Metadata = cfg.Metadata(local)
	}
	if cfg.Tags != nil {
		req.Tags = cfg.Tags(local)
	}
	if cfg.CacheControl != nil {
		req.CacheControl = cfg.CacheControl(local)
	}
	if cfg.MakePublic != nil {
		req.MakePublic = cfg.MakePublic(local)
	}
	return req
}

// uploadVariant uploads one encoded form of src and returns the number of
// body bytes sent.
func (p *Pusher) uploadVariant(
	ctx context.Context,
	src fileSource,
	variant pushtypes.EncodingVariant,
	base storage.UploadRequest,
) (int64, error) {
	file, err := src.fs.Open(src.name)
	if err != nil {
		return 0, pusherrors.NewKeyError("open", src.display, err).WithCode(pusherrors.CodeIO)
	}
	defer file.Close()

	req := base
	req.Key = variant.Key
	req.ContentEncoding = variant.Encoding.ContentEncoding()

	var body io.Reader = file
	if variant.Encoding != pushtypes.EncodingRaw {
		spool := p.pool.NewSpool(p.spoolFS, p.config.SpoolThreshold)
		defer func() {
			if err := spool.Close(); err != nil {
				p.logger.Warn("spool cleanup failed", "key", variant.Key, "error", err)
			}
		}()

		if err := encoding.Compress(variant.Encoding, spool, file); err != nil {
			return 0, pusherrors.NewKeyError("compress", variant.Key, err).WithCode(pusherrors.CodeIO)
		}
		if body, err = spool.Reader(); err != nil {
			return 0, pusherrors.NewKeyError("compress", variant.Key, err).WithCode(pusherrors.CodeIO)
		}
		req.ContentLength = spool.Len()
	}
	req.Body = body

	if err := p.provider.Upload(ctx, &req); err != nil {
		return 0, err //nolint:wrapcheck // providers return push errors
	}
	return req.ContentLength, nil
}

func (p *Pusher) deleteExtra(ctx context.Context, key string) deleteOutcome {
	if err := p.provider.Delete(ctx, key); err != nil {
		p.logger.Error("delete failed", "key", key, "error", err)
		return deleteOutcome{key: key}
	}
	p.logger.Info("deleted", "key", key)
	return deleteOutcome{key: key, deleted: true}
}
