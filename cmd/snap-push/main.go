// Command snap-push uploads a local file tree to object storage, skipping
// unchanged files and optionally deleting remote files that no longer exist
// locally.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/input-output-hk/catalyst-forge-libs/push"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/cache"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/logging"
	"github.com/input-output-hk/catalyst-forge-libs/push/internal/watch"
	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/registry"
)

var errFailedKeys = errors.New("some files failed to sync")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(registry.Default())
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(reg *registry.Registry) *cli.App {
	return &cli.App{
		Name:      "snap-push",
		Usage:     "Push files to the remote file service.",
		ArgsUsage: "<source> <destination>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Aliases: []string{"c"}, Value: config.DefaultConcurrency, Usage: "parallel uploads"},
			&cli.StringFlag{Name: "prefix", Usage: "prefix prepended to every destination key"},
			&cli.StringFlag{Name: "account-name", Usage: "azure account, minio access key or s3 access key id"},
			&cli.StringFlag{Name: "account-key", Usage: "azure account key, minio secret key or s3 secret access key"},
			&cli.StringFlag{Name: "endpoint", Usage: "custom service endpoint"},
			&cli.StringFlag{Name: "region", Usage: "bucket region"},
			&cli.StringFlag{Name: "credentials-file", Usage: "gcp service account key file"},
			&cli.BoolFlag{Name: "public", Usage: "make uploaded objects publicly readable"},
			&cli.BoolFlag{Name: "force", Usage: "upload every file even if unchanged"},
			&cli.BoolFlag{Name: "delete", Usage: "delete remote files with no local counterpart"},
			&cli.BoolFlag{Name: "dry-run", Usage: "log uploads and deletes without performing them"},
			&cli.StringFlag{Name: "cwd", Usage: "directory source patterns are relative to"},
			&cli.StringFlag{Name: "cache-control", Usage: "Cache-Control header for uploaded objects"},
			&cli.StringFlag{Name: "encoding", Usage: "compressed variants to store, e.g. br,gzip"},
			&cli.StringFlag{Name: "encoding-ext", Usage: "file extensions to compress, e.g. js,css,html"},
			&cli.StringFlag{Name: "encoding-mime", Usage: "MIME types to compress, e.g. text/*"},
			&cli.Int64Flag{Name: "encoding-min-size", Usage: "smallest file in bytes to compress"},
			&cli.BoolFlag{Name: "list-metadata", Usage: "fetch object metadata when listing"},
			&cli.StringFlag{Name: "cache", Usage: `fingerprint cache database file, or "default" for the user cache dir`},
			&cli.BoolFlag{Name: "watch", Usage: "push again whenever local files change"},
			&cli.StringFlag{Name: "config", Usage: "YAML configuration file"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "fail-on-error", Usage: "exit non-zero when any file fails"},
		},
		Action: func(c *cli.Context) error {
			return run(c, reg)
		},
	}
}

func run(c *cli.Context, reg *registry.Registry) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.NArg() > 2 {
		return fmt.Errorf("expected <source> <destination>, got %d arguments", c.NArg())
	}
	if c.NArg() > 0 {
		cfg.Sources = config.SplitList(c.Args().Get(0))
	}
	if c.NArg() > 1 {
		cfg.Destination = c.Args().Get(1)
	}
	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, c.App.ErrWriter)
	if err != nil {
		return err
	}

	provider, err := reg.Open(c.Context, cfg.Destination, cfg.RegistryOptions())
	if err != nil {
		return err
	}

	opts, err := pushOptions(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.CacheFile != "" {
		path := cfg.CacheFile
		if path == "default" {
			path = cache.DefaultPath()
		}
		fc, err := cache.Open(path)
		if err != nil {
			return err
		}
		defer fc.Close()
		opts = append(opts, push.WithFingerprintCache(fc))
	}

	pusher, err := push.New(provider, opts...)
	if err != nil {
		return err
	}

	once := func(ctx context.Context) error {
		res, err := pusher.Push(ctx, cfg.Sources)
		if res != nil {
			printSummary(c.App.Writer, res)
		}
		if err != nil {
			return err
		}
		if res.HasErrors() && cfg.FailOnError {
			return fmt.Errorf("%w: %d failed", errFailedKeys, len(res.ErrorKeys))
		}
		return nil
	}

	if err := once(c.Context); err != nil {
		return err
	}
	if !cfg.Watch {
		return nil
	}

	dir, err := filepath.Abs(workingDir(cfg))
	if err != nil {
		return err
	}

	w := watch.New(dir, once, logger)
	if err := w.Watch(c.Context); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyFlags copies explicitly set flags over the file and env layers.
func applyFlags(c *cli.Context, cfg *config.Config) {
	str := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	list := func(name string, dst *[]string) {
		if c.IsSet(name) {
			*dst = config.SplitList(c.String(name))
		}
	}

	if c.IsSet("concurrency") {
		cfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("encoding-min-size") {
		cfg.EncodingMinSize = c.Int64("encoding-min-size")
	}

	str("prefix", &cfg.Prefix)
	str("account-name", &cfg.AccountName)
	str("account-key", &cfg.AccountKey)
	str("endpoint", &cfg.Endpoint)
	str("region", &cfg.Region)
	str("credentials-file", &cfg.CredentialsFile)
	str("cwd", &cfg.WorkingDir)
	str("cache-control", &cfg.CacheControl)
	str("cache", &cfg.CacheFile)
	str("log-format", &cfg.LogFormat)
	str("log-level", &cfg.LogLevel)

	boolean("public", &cfg.Public)
	boolean("force", &cfg.Force)
	boolean("delete", &cfg.Delete)
	boolean("dry-run", &cfg.DryRun)
	boolean("list-metadata", &cfg.ListMetadata)
	boolean("watch", &cfg.Watch)
	boolean("fail-on-error", &cfg.FailOnError)

	list("encoding", &cfg.Encodings)
	list("encoding-ext", &cfg.EncodingExts)
	list("encoding-mime", &cfg.EncodingMIMETypes)
}

func pushOptions(cfg *config.Config, logger *slog.Logger) ([]pushtypes.Option, error) {
	opts := []pushtypes.Option{
		push.WithLogger(logger),
		push.WithConcurrency(cfg.Concurrency),
		push.WithDestPathPrefix(cfg.Prefix),
		push.WithOnlyUploadChanges(!cfg.Force),
		push.WithDeleteExtraFiles(cfg.Delete),
		push.WithDryRun(cfg.DryRun),
		push.WithListIncludeMetadata(cfg.ListMetadata),
		push.WithMakePublic(cfg.Public),
	}
	if cfg.WorkingDir != "" {
		opts = append(opts, push.WithWorkingDirectory(cfg.WorkingDir))
	}
	if cfg.CacheControl != "" {
		opts = append(opts, push.WithCacheControl(cfg.CacheControl))
	}

	enc, err := cfg.EncodingOptions()
	if err != nil {
		return nil, err
	}
	if enc != nil {
		opts = append(opts, push.WithEncoding(*enc))
	}

	return opts, nil
}

func workingDir(cfg *config.Config) string {
	if cfg.WorkingDir == "" {
		return "."
	}
	return cfg.WorkingDir
}

func printSummary(w io.Writer, res *pushtypes.Result) {
	fmt.Fprintf(w, "Finished in %ds. (Uploaded %d. Deleted %d. Skipped %d.)\n",
		int64(math.Round(res.Elapsed.Seconds())),
		len(res.UploadedKeys), len(res.DeletedKeys), len(res.SkippedKeys))
	fmt.Fprintf(w, "Transferred %s.", humanize.Bytes(uint64(res.BytesUploaded)))
	if len(res.ErrorKeys) > 0 {
		fmt.Fprintf(w, " %d failed.", len(res.ErrorKeys))
	}
	fmt.Fprintln(w)
}
