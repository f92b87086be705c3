// Package gcs implements storage.Provider for Google Cloud Storage.
//
// GCS has no object tags; UploadRequest.Tags are ignored.
package gcs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	pushstorage "github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// predefinedACLPublicRead grants allUsers read access to an object.
const predefinedACLPublicRead = "publicRead"

// API is the narrow GCS surface the provider uses.
type API interface {
	Write(ctx context.Context, bucket string, attrs storage.ObjectAttrs, body io.Reader) error
	Objects(ctx context.Context, bucket, prefix string) ([]*storage.ObjectAttrs, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Options configures the GCS client.
type Options struct {
	// CredentialsFile is a service account JSON key file.
	CredentialsFile string

	// CredentialsJSON is a service account JSON key.
	CredentialsJSON []byte

	// Endpoint overrides the API endpoint, e.g. for an emulator.
	Endpoint string

	// WithoutAuthentication disables credentials, e.g. for an emulator.
	WithoutAuthentication bool
}

func (o Options) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case o.WithoutAuthentication:
		opts = append(opts, option.WithoutAuthentication())
	case len(o.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(o.CredentialsJSON))
	case o.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint))
	}
	return opts
}

// Provider stores objects in one GCS bucket.
type Provider struct {
	api    API
	bucket string
}

var _ pushstorage.Provider = (*Provider)(nil)

// New creates a GCS provider for bucket.
func New(ctx context.Context, bucket string, opts Options) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("gcs.new", pusherrors.ErrMissingBucket)
	}

	client, err := storage.NewClient(ctx, opts.clientOptions()...)
	if err != nil {
		return nil, pusherrors.NewError("gcs.new", err).WithCode(pusherrors.CodeInvalidConfig)
	}

	return NewWithAPI(&clientAPI{client: client}, bucket)
}

// NewWithAPI creates a provider over a custom API implementation.
func NewWithAPI(api API, bucket string) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("gcs.new", pusherrors.ErrMissingBucket)
	}
	return &Provider{api: api, bucket: bucket}, nil
}

// Upload implements storage.Provider.
func (p *Provider) Upload(ctx context.Context, req *pushstorage.UploadRequest) error {
	attrs := storage.ObjectAttrs{
		Name:            req.Key,
		ContentType:     req.ContentType,
		ContentEncoding: req.ContentEncoding,
		CacheControl:    req.CacheControl,
		Metadata:        maps.Clone(req.Metadata),
	}
	if req.MakePublic {
		attrs.PredefinedACL = predefinedACLPublicRead
	}

	if err := p.api.Write(ctx, p.bucket, attrs, req.Body); err != nil {
		return pusherrors.NewKeyError("gcs.upload", req.Key, translateError(err))
	}
	return nil
}

// List implements storage.Provider. Metadata is always part of the object
// listing, so includeMetadata only controls whether it is returned.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]pushstorage.RemoteObject, error) {
	attrs, err := p.api.Objects(ctx, p.bucket, prefix)
	if err != nil {
		return nil, pusherrors.NewError("gcs.list", translateError(err))
	}

	objects := make([]pushstorage.RemoteObject, 0, len(attrs))
	for _, a := range attrs {
		ro := pushstorage.RemoteObject{
			Key:  a.Name,
			MD5:  hex.EncodeToString(a.MD5),
			Size: a.Size,
		}
		if includeMetadata {
			ro.Metadata = a.Metadata
		}
		objects = append(objects, ro)
	}
	return objects, nil
}

// Delete implements storage.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := p.api.Delete(ctx, p.bucket, key); err != nil {
		return pusherrors.NewKeyError("gcs.delete", key, translateError(err))
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %w", pusherrors.ErrObjectNotFound, err)
	}
	return err
}

// clientAPI implements API over *storage.Client.
type clientAPI struct {
	client *storage.Client
}

func (c *clientAPI) Write(ctx context.Context, bucket string, attrs storage.ObjectAttrs, body io.Reader) error {
	w := c.client.Bucket(bucket).Object(attrs.Name).NewWriter(ctx)
	w.ObjectAttrs = attrs

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object: %w", err)
	}
	return nil
}

func (c *clientAPI) Objects(ctx context.Context, bucket, prefix string) ([]*storage.ObjectAttrs, error) {
	it := c.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var out []*storage.ObjectAttrs
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		out = append(out, attrs)
	}
}

func (c *clientAPI) Delete(ctx context.Context, bucket, key string) error {
	if err := c.client.Bucket(bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}
