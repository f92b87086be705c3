// Package dryrun decorates a storage.Provider so that writes are logged
// instead of performed. Listing still reaches the real backend, so skip and
// delete decisions match a real run.
package dryrun

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// Logger receives one line per pretended write.
type Logger interface {
	Info(msg string, args ...any)
}

// Provider wraps another provider in dry-run mode.
type Provider struct {
	inner  storage.Provider
	logger Logger
}

var _ storage.Provider = (*Provider)(nil)

// New wraps inner. Upload and Delete are logged to logger and never reach
// inner; List is delegated.
func New(inner storage.Provider, logger Logger) *Provider {
	return &Provider{inner: inner, logger: logger}
}

// Upload logs the request without reading its body.
func (p *Provider) Upload(_ context.Context, req *storage.UploadRequest) error {
	args := []any{"key", req.Key, "content_type", req.ContentType, "size", req.ContentLength}
	if req.ContentEncoding != "" {
		args = append(args, "content_encoding", req.ContentEncoding)
	}
	p.logger.Info("pretend upload", args...)
	return nil
}

// List delegates to the wrapped provider.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]storage.RemoteObject, error) {
	return p.inner.List(ctx, prefix, includeMetadata) //nolint:wrapcheck // transparent decorator
}

// Delete logs the key without deleting it.
func (p *Provider) Delete(_ context.Context, key string) error {
	p.logger.Info("pretend delete", "key", key)
	return nil
}

// Unwrap returns the decorated provider.
func (p *Provider) Unwrap() storage.Provider {
	return p.inner
}
