// Package minio implements storage.Provider for MinIO and other
// S3-compatible servers using minio-go.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// API is the subset of *minio.Client the provider uses.
type API interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Options configures a MinIO provider.
type Options struct {
	// Endpoint is host[:port] without scheme.
	Endpoint string

	// AccessKey and SecretKey are static credentials.
	AccessKey string
	SecretKey string

	// Region is optional for most MinIO deployments.
	Region string

	// Secure enables TLS.
	Secure bool
}

// Provider stores objects in one MinIO bucket.
type Provider struct {
	client API
	bucket string
}

var _ storage.Provider = (*Provider)(nil)

// New connects to the server described by opts.
func New(bucket string, opts Options) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("minio.new", pusherrors.ErrMissingBucket)
	}
	if opts.Endpoint == "" {
		return nil, pusherrors.NewError("minio.new",
			fmt.Errorf("%w: endpoint is required", pusherrors.ErrInvalidInput)).WithCode(pusherrors.CodeInvalidConfig)
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, pusherrors.NewError("minio.new", err).WithCode(pusherrors.CodeInvalidConfig)
	}

	return NewWithClient(client, bucket)
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, bucket string) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("minio.new", pusherrors.ErrMissingBucket)
	}
	return &Provider{client: client, bucket: bucket}, nil
}

// Upload implements storage.Provider.
func (p *Provider) Upload(ctx context.Context, req *storage.UploadRequest) error {
	meta := maps.Clone(req.Metadata)
	if req.MakePublic {
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta["x-amz-acl"] = "public-read"
	}

	_, err := p.client.PutObject(ctx, p.bucket, req.Key, req.Body, req.ContentLength, minio.PutObjectOptions{
		ContentType:     req.ContentType,
		ContentEncoding: req.ContentEncoding,
		CacheControl:    req.CacheControl,
		UserMetadata:    meta,
		UserTags:        req.Tags,
	})
	if err != nil {
		return pusherrors.NewKeyError("minio.upload", req.Key, translateError(err))
	}
	return nil
}

// List implements storage.Provider.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]storage.RemoteObject, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []storage.RemoteObject
	for obj := range p.client.ListObjects(ctx, p.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: includeMetadata,
	}) {
		if obj.Err != nil {
			return nil, pusherrors.NewError("minio.list", translateError(obj.Err))
		}

		ro := storage.RemoteObject{
			Key:  obj.Key,
			MD5:  etagMD5(obj.ETag),
			Size: obj.Size,
		}
		if includeMetadata {
			ro.Metadata = userMetadata(obj.UserMetadata)
		}
		objects = append(objects, ro)
	}
	return objects, nil
}

// Delete implements storage.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := p.client.RemoveObject(ctx, p.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return pusherrors.NewKeyError("minio.delete", key, translateError(err))
	}
	return nil
}

// userMetadata strips the X-Amz-Meta- prefix MinIO reports metadata with.
func userMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if len(k) > len("x-amz-meta-") && strings.EqualFold(k[:len("x-amz-meta-")], "x-amz-meta-") {
			k = k[len("x-amz-meta-"):]
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

func etagMD5(etag string) string {
	etag = strings.Trim(etag, `"`)
	if strings.Contains(etag, "-") {
		return ""
	}
	return strings.ToLower(etag)
}

func translateError(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey":
			return fmt.Errorf("%w: %w", pusherrors.ErrObjectNotFound, err)
		case "AccessDenied":
			return fmt.Errorf("%w: %w", pusherrors.ErrAccessDenied, err)
		}
	}
	return err
}
