// Package azure implements storage.Provider for Azure Blob Storage.
//
// Public access is a container-level setting in Azure, so
// UploadRequest.MakePublic has no effect here.
package azure

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// API is the narrow container surface the provider uses.
type API interface {
	Upload(ctx context.Context, key string, body io.Reader, opts *blockblob.UploadStreamOptions) error
	List(ctx context.Context, prefix string, includeMetadata bool) ([]*container.BlobItem, error)
	Delete(ctx context.Context, key string) error
}

// Options configures the Azure client.
type Options struct {
	// AccountName is the storage account.
	AccountName string

	// AccountKey is the shared key for AccountName.
	AccountKey string

	// ServiceURL overrides https://<account>.blob.core.windows.net, e.g. for
	// Azurite.
	ServiceURL string
}

// ServiceURLFor returns the blob service URL for opts.
func ServiceURLFor(opts Options) string {
	if opts.ServiceURL != "" {
		return opts.ServiceURL
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net", opts.AccountName)
}

// Provider stores blobs in one container.
type Provider struct {
	api       API
	container string
}

var _ storage.Provider = (*Provider)(nil)

// New creates a provider for containerName using shared-key credentials.
func New(containerName string, opts Options) (*Provider, error) {
	if containerName == "" {
		return nil, pusherrors.NewError("azure.new",
			fmt.Errorf("%w: containerName is required", pusherrors.ErrMissingBucket))
	}

	cred, err := azblob.NewSharedKeyCredential(opts.AccountName, opts.AccountKey)
	if err != nil {
		return nil, pusherrors.NewError("azure.new", err).WithCode(pusherrors.CodeInvalidConfig)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(ServiceURLFor(opts), cred, nil)
	if err != nil {
		return nil, pusherrors.NewError("azure.new", err).WithCode(pusherrors.CodeInvalidConfig)
	}

	return NewWithAPI(&containerAPI{client: client.ServiceClient().NewContainerClient(containerName)}, containerName)
}

// NewWithAPI creates a provider over a custom API implementation.
func NewWithAPI(api API, containerName string) (*Provider, error) {
	if containerName == "" {
		return nil, pusherrors.NewError("azure.new",
			fmt.Errorf("%w: containerName is required", pusherrors.ErrMissingBucket))
	}
	return &Provider{api: api, container: containerName}, nil
}

// Upload implements storage.Provider.
func (p *Provider) Upload(ctx context.Context, req *storage.UploadRequest) error {
	headers := &blob.HTTPHeaders{
		BlobContentType: to.Ptr(req.ContentType),
	}
	if req.ContentEncoding != "" {
		headers.BlobContentEncoding = to.Ptr(req.ContentEncoding)
	}
	if req.CacheControl != "" {
		headers.BlobCacheControl = to.Ptr(req.CacheControl)
	}

	opts := &blockblob.UploadStreamOptions{
		HTTPHeaders: headers,
		Metadata:    toPtrMap(req.Metadata),
	}
	if len(req.Tags) > 0 {
		opts.Tags = req.Tags
	}

	if err := p.api.Upload(ctx, req.Key, req.Body, opts); err != nil {
		return pusherrors.NewKeyError("azure.upload", req.Key, translateError(err))
	}
	return nil
}

// List implements storage.Provider.
func (p *Provider) List(ctx context.Context, prefix string, includeMetadata bool) ([]storage.RemoteObject, error) {
	items, err := p.api.List(ctx, prefix, includeMetadata)
	if err != nil {
		return nil, pusherrors.NewError("azure.list", translateError(err))
	}

	objects := make([]storage.RemoteObject, 0, len(items))
	for _, item := range items {
		objects = append(objects, toRemoteObject(item, includeMetadata))
	}
	return objects, nil
}

func toRemoteObject(item *container.BlobItem, includeMetadata bool) storage.RemoteObject {
	ro := storage.RemoteObject{}
	if item.Name != nil {
		ro.Key = *item.Name
	}
	if props := item.Properties; props != nil {
		ro.MD5 = hex.EncodeToString(props.ContentMD5)
		if props.ContentLength != nil {
			ro.Size = *props.ContentLength
		}
	}
	if includeMetadata {
		ro.Metadata = fromPtrMap(item.Metadata)
	}
	return ro
}

// Delete implements storage.Provider.
func (p *Provider) Delete(ctx context.Context, key string) error {
	if err := p.api.Delete(ctx, key); err != nil {
		return pusherrors.NewKeyError("azure.delete", key, translateError(err))
	}
	return nil
}

func toPtrMap(in map[string]string) map[string]*string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]*string, len(in))
	for k, v := range in {
		out[k] = to.Ptr(v)
	}
	return out
}

func fromPtrMap(in map[string]*string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

func translateError(err error) error {
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return fmt.Errorf("%w: %w", pusherrors.ErrObjectNotFound, err)
	case bloberror.HasCode(err, bloberror.AuthorizationFailure, bloberror.AuthenticationFailed,
		bloberror.InsufficientAccountPermissions):
		return fmt.Errorf("%w: %w", pusherrors.ErrAccessDenied, err)
	default:
		return err
	}
}

// containerAPI implements API over an azblob container client.
type containerAPI struct {
	client *container.Client
}

func (c *containerAPI) Upload(ctx context.Context, key string, body io.Reader, opts *blockblob.UploadStreamOptions) error {
	if _, err := c.client.NewBlockBlobClient(key).UploadStream(ctx, body, opts); err != nil {
		return fmt.Errorf("uploading blob: %w", err)
	}
	return nil
}

func (c *containerAPI) List(ctx context.Context, prefix string, includeMetadata bool) ([]*container.BlobItem, error) {
	opts := &container.ListBlobsFlatOptions{
		Include: container.ListBlobsInclude{Metadata: includeMetadata},
	}
	if prefix != "" {
		opts.Prefix = to.Ptr(prefix)
	}

	var items []*container.BlobItem
	pager := c.client.NewListBlobsFlatPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing blobs: %w", err)
		}
		if page.Segment != nil {
			items = append(items, page.Segment.BlobItems...)
		}
	}
	return items, nil
}

func (c *containerAPI) Delete(ctx context.Context, key string) error {
	if _, err := c.client.NewBlobClient(key).Delete(ctx, nil); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}
