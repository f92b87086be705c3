// Package registry turns destination URIs such as s3://my-bucket into
// storage providers.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/azure"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/gcs"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/minio"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/s3"
)

var destinationPattern = regexp.MustCompile(`^([a-zA-Z0-9]+)://([a-zA-Z0-9-]+)/*`)

// Options carries the credentials and endpoint flags shared by every backend.
// Each factory reads the fields that apply to it.
type Options struct {
	// Region is used by s3 and minio.
	Region string

	// Endpoint overrides the service endpoint. Required for minio, where an
	// http:// prefix disables TLS.
	Endpoint string

	// AccountName and AccountKey are the azure shared key, the minio access
	// key pair, or static s3 credentials.
	AccountName string
	AccountKey  string

	// CredentialsFile is a gcp service account key file.
	CredentialsFile string

	// ListMetadataConcurrency bounds s3 HeadObject calls when listing with
	// metadata.
	ListMetadataConcurrency int
}

// Factory builds a provider for bucket.
type Factory func(ctx context.Context, bucket string, opts Options) (storage.Provider, error)

// Registry maps destination schemes to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry with the built-in schemes: s3, gcp (and its
// alias gs), azure and minio.
func Default() *Registry {
	r := New()
	r.mustRegister("s3", openS3)
	r.mustRegister("gcp", openGCS)
	r.mustRegister("gs", openGCS)
	r.mustRegister("azure", openAzure)
	r.mustRegister("minio", openMinio)
	return r
}

// Register adds a factory for scheme. Schemes are case-insensitive.
func (r *Registry) Register(scheme string, factory Factory) error {
	scheme = strings.ToLower(scheme)
	if scheme == "" {
		return fmt.Errorf("scheme cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[scheme]; exists {
		return fmt.Errorf("scheme %q already registered", scheme)
	}
	r.factories[scheme] = factory
	return nil
}

func (r *Registry) mustRegister(scheme string, factory Factory) {
	if err := r.Register(scheme, factory); err != nil {
		panic(err)
	}
}

// Schemes lists the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for s := range r.factories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// Open parses dest and builds the provider registered for its scheme.
func (r *Registry) Open(ctx context.Context, dest string, opts Options) (storage.Provider, error) {
	scheme, bucket, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	factory, ok := r.factories[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, pusherrors.NewError("open",
			fmt.Errorf("%s is not supported: %w", scheme, pusherrors.ErrUnsupportedProvider))
	}

	return factory(ctx, bucket, opts)
}

// Open builds a provider for dest using the default registry.
func Open(ctx context.Context, dest string, opts Options) (storage.Provider, error) {
	return Default().Open(ctx, dest, opts)
}

// ParseDestination splits "<scheme>://<bucket>" into its parts. Anything
// after the bucket name is ignored; the scheme is lowercased.
func ParseDestination(dest string) (scheme, bucket string, err error) {
	m := destinationPattern.FindStringSubmatch(strings.TrimSpace(dest))
	if m == nil {
		return "", "", pusherrors.NewError("parse", pusherrors.ErrInvalidDestination)
	}
	return strings.ToLower(m[1]), m[2], nil
}

func openS3(ctx context.Context, bucket string, opts Options) (storage.Provider, error) {
	var s3opts []s3.Option
	if opts.Region != "" {
		s3opts = append(s3opts, s3.WithRegion(opts.Region))
	}
	if opts.Endpoint != "" {
		s3opts = append(s3opts, s3.WithEndpoint(opts.Endpoint), s3.WithForcePathStyle(true))
	}
	if opts.AccountName != "" {
		s3opts = append(s3opts, s3.WithCredentials(opts.AccountName, opts.AccountKey, ""))
	}
	if opts.ListMetadataConcurrency > 0 {
		s3opts = append(s3opts, s3.WithListMetadataConcurrency(opts.ListMetadataConcurrency))
	}
	return s3.New(ctx, bucket, s3opts...)
}

func openGCS(ctx context.Context, bucket string, opts Options) (storage.Provider, error) {
	return gcs.New(ctx, bucket, gcs.Options{
		CredentialsFile: opts.CredentialsFile,
		Endpoint:        opts.Endpoint,
	})
}

func openAzure(_ context.Context, container string, opts Options) (storage.Provider, error) {
	return azure.New(container, azure.Options{
		AccountName: opts.AccountName,
		AccountKey:  opts.AccountKey,
		ServiceURL:  opts.Endpoint,
	})
}

func openMinio(_ context.Context, bucket string, opts Options) (storage.Provider, error) {
	endpoint, secure := splitEndpoint(opts.Endpoint)
	return minio.New(bucket, minio.Options{
		Endpoint:  endpoint,
		AccessKey: opts.AccountName,
		SecretKey: opts.AccountKey,
		Region:    opts.Region,
		Secure:    secure,
	})
}

// splitEndpoint strips a URL scheme from endpoint and reports whether TLS
// should be used. Bare host:port endpoints use TLS.
func splitEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	default:
		return endpoint, true
	}
}
