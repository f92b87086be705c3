// Package s3 implements storage.Provider for Amazon S3 and S3-compatible
// services using the AWS SDK for Go v2.
package s3

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// Provider stores objects in one S3 bucket.
type Provider struct {
	client              S3API
	bucket              string
	metadataConcurrency int
}

var _ storage.Provider = (*Provider)(nil)

// New creates an S3 provider for bucket. Credentials come from the default
// AWS chain unless WithCredentials or WithAWSConfig is given.
//
// Example:
//
//	provider, err := s3.New(ctx, "my-site",
//	    s3.WithRegion("eu-west-1"),
//	)
func New(ctx context.Context, bucket string, opts ...Option) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("s3.new", pusherrors.ErrMissingBucket)
	}

	cfg := newConfig(opts)

	var awsCfg aws.Config
	if cfg.AWSConfig != nil {
		awsCfg = *cfg.AWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AccessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
			))
		}

		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, pusherrors.NewError("s3.new", err).WithCode(pusherrors.CodeInvalidConfig)
		}
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	var s3Opts []func(*s3.Options)
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return &Provider{
		client:              s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:              bucket,
		metadataConcurrency: cfg.ListMetadataConcurrency,
	}, nil
}

// NewWithClient creates a provider over an existing S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(client S3API, bucket string, opts ...Option) (*Provider, error) {
	if bucket == "" {
		return nil, pusherrors.NewError("s3.new", pusherrors.ErrMissingBucket)
	}
	cfg := newConfig(opts)
	return &Provider{
		client:              client,
		bucket:              bucket,
		metadataConcurrency: cfg.ListMetadataConcurrency,
	}, nil
}

func newConfig(opts []Option) *Config {
	cfg := &Config{ListMetadataConcurrency: DefaultListMetadataConcurrency}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Bucket returns the bucket name.
func (p *Provider) Bucket() string {
	return p.bucket
}

// Upload implements storage.Provider.
func (p *Provider) Upload(ctx context.Context, req *storage.UploadRequest) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(req.Key),
		Body:          req.Body,
		ContentType:   aws.String(req.ContentType),
		ContentLength: aws.Int64(req.ContentLength),
	}
	if req.ContentEncoding != "" {
		input.ContentEncoding = aws.String(req.ContentEncoding)
	}
	if req.CacheControl != "" {
		input.CacheControl = aws.String(req.CacheControl)
	}
	if len(req.Metadata) > 0 {
		input.Metadata = maps.Clone(req.Metadata)
	}
	if len(req.Tags) > 0 {
		input.Tagging = aws.String(encodeTags(req.Tags))
	}
	if req.MakePublic {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := p.client.PutObject(ctx, input); err != nil {
		return pusherrors.NewKeyError("s3.upload", req.Key, mapError(err))
	}
	return nil
}

// List implements storage.Provider. Pages are fetched until the listing is
// exhausted; with includeMetadata each object is HEADed, a few at a time.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]storage.RemoteObject, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []storage.RemoteObject
	paginator := s3.NewListObjectsV2Paginator(p.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pusherrors.NewError("s3.list", mapError(err))
		}
		for _, obj := range page.Contents {
			objects = append(objects, storage.RemoteObject{
				Key:  aws.ToString(obj.Key),
				MD5:  etagMD5(aws.ToString(obj.ETag)),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	if includeMetadata && len(objects) > 0 {
		if err := p.fillMetadata(ctx, objects); err != nil {
			return nil, err
		}
	}

	return objects, nil
}

func (p *Provider) fillMetadata(ctx context.Context, objects []storage.RemoteObject) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.metadataConcurrency)

	for i := range objects {
		g.Go(func() error {
			out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(p.bucket),
				Key:    aws.String(objects[i].Key),
			})
			if err != nil {
				return pusherrors.NewKeyError("s3.head", objects[i].Key, mapError(err))
			}
			objects[i].Metadata = out.Metadata
			return nil
		})
	}

	return g.Wait() //nolint:wrapcheck // errors are already push errors
}

// Delete implements storage.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return pusherrors.NewKeyError("s3.delete", key, mapError(err))
	}
	return nil
}

// encodeTags renders tags as the URL query string S3 expects.
func encodeTags(tags map[string]string) string {
	v := url.Values{}
	for k, val := range tags {
		v.Set(k, val)
	}
	return v.Encode()
}

// etagMD5 returns the hex MD5 carried by a single-part ETag, or "" for
// multipart ETags, which are not content hashes.
func etagMD5(etag string) string {
	etag = strings.Trim(etag, `"`)
	if strings.Contains(etag, "-") {
		return ""
	}
	return strings.ToLower(etag)
}

func mapError(err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %w", pusherrors.ErrObjectNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", pusherrors.ErrObjectNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %w", pusherrors.ErrAccessDenied, err)
		}
	}
	return err
}
