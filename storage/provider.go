// Package storage defines the capability contract every object-storage
// backend implements. The push engine depends only on Provider; backends live
// in subpackages (s3, minio, gcs, azure, memory) and dryrun decorates any of
// them.
package storage

import (
	"context"
	"io"
)

//go:generate mockgen -destination=mocks/provider.go -package=mocks . Provider

// Provider uploads, lists and deletes objects in a single bucket or container.
type Provider interface {
	// Upload writes req.Body to req.Key. The body is consumed exactly once.
	Upload(ctx context.Context, req *UploadRequest) error

	// List returns every object whose key starts with prefix, paginating
	// internally. Order is unspecified. When includeMetadata is true each
	// object's user metadata is populated.
	List(ctx context.Context, prefix string, includeMetadata bool) ([]RemoteObject, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}

// RemoteObject is a snapshot of one remote object as returned by List.
type RemoteObject struct {
	// Key is the full remote key.
	Key string

	// MD5 is the hex MD5 of the stored bytes when the backend exposes it.
	// Empty when unknown (e.g. multipart uploads).
	MD5 string

	// Size is the stored size in bytes.
	Size int64

	// Metadata is the object's user metadata. Populated only when List is
	// called with includeMetadata.
	Metadata map[string]string
}

// UploadRequest describes one object write. A local file produces one request
// per encoding variant.
type UploadRequest struct {
	// Body is the byte stream to store. Providers that need to rewind (for
	// request signing or retries) may type-assert io.ReadSeeker.
	Body io.Reader

	// Key is the destination object key.
	Key string

	// ContentType is the MIME type of the uncompressed content.
	ContentType string

	// ContentLength is the number of bytes Body yields.
	ContentLength int64

	// ContentEncoding is "gzip", "br" or "zstd" for compressed variants and
	// empty for raw ones.
	ContentEncoding string

	// MD5 is the hex MD5 of the raw, uncompressed content.
	MD5 string

	// Metadata is user metadata to store with the object.
	Metadata map[string]string

	// Tags are object tags, where the backend supports them.
	Tags map[string]string

	// CacheControl is the Cache-Control header value, if any.
	CacheControl string

	// MakePublic requests a publicly readable object.
	MakePublic bool
}
