package azure

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

type fakeAPI struct {
	uploads map[string]*blockblob.UploadStreamOptions
	bodies  map[string]string
	items   []*container.BlobItem
	deleted []string
	err     error
}

func (f *fakeAPI) Upload(_ context.Context, key string, body io.Reader, opts *blockblob.UploadStreamOptions) error {
	if f.err != nil {
		return f.err
	}
	data, _ := io.ReadAll(body)
	if f.uploads == nil {
		f.uploads = map[string]*blockblob.UploadStreamOptions{}
		f.bodies = map[string]string{}
	}
	f.uploads[key] = opts
	f.bodies[key] = string(data)
	return nil
}

func (f *fakeAPI) List(context.Context, string, bool) ([]*container.BlobItem, error) {
	return f.items, f.err
}

func (f *fakeAPI) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func TestNew(t *testing.T) {
	_, err := New("", Options{AccountName: "acct", AccountKey: "dGVzdA=="})
	assert.ErrorIs(t, err, pusherrors.ErrMissingBucket)
	assert.Contains(t, err.Error(), "containerName is required")

	p, err := New("web", Options{AccountName: "acct", AccountKey: "dGVzdA=="})
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestServiceURLFor(t *testing.T) {
	assert.Equal(t, "https://acct.blob.core.windows.net", ServiceURLFor(Options{AccountName: "acct"}))
	assert.Equal(t, "http://127.0.0.1:10000/devstoreaccount1",
		ServiceURLFor(Options{AccountName: "acct", ServiceURL: "http://127.0.0.1:10000/devstoreaccount1"}))
}

func TestProvider_Upload(t *testing.T) {
	api := &fakeAPI{}
	p, err := NewWithAPI(api, "web")
	require.NoError(t, err)

	err = p.Upload(context.Background(), &storage.UploadRequest{
		Body:            strings.NewReader("payload"),
		Key:             "a.css.gz",
		ContentType:     "text/css",
		ContentEncoding: "gzip",
		CacheControl:    "max-age=5",
		Metadata:        map[string]string{"k": "v"},
		Tags:            map[string]string{"env": "prod"},
	})
	require.NoError(t, err)

	opts := api.uploads["a.css.gz"]
	require.NotNil(t, opts)
	assert.Equal(t, "text/css", *opts.HTTPHeaders.BlobContentType)
	assert.Equal(t, "gzip", *opts.HTTPHeaders.BlobContentEncoding)
	assert.Equal(t, "max-age=5", *opts.HTTPHeaders.BlobCacheControl)
	assert.Equal(t, "v", *opts.Metadata["k"])
	assert.Equal(t, map[string]string{"env": "prod"}, opts.Tags)
	assert.Equal(t, "payload", api.bodies["a.css.gz"])
}

func TestProvider_List(t *testing.T) {
	api := &fakeAPI{items: []*container.BlobItem{
		{
			Name: to.Ptr("out/a.txt"),
			Properties: &container.BlobProperties{
				ContentMD5:    []byte{0x49, 0xf6, 0x8a, 0x5c, 0x84, 0x93, 0xec, 0x2c, 0x0b, 0xf4, 0x89, 0x82, 0x1c, 0x21, 0xfc, 0x3b},
				ContentLength: to.Ptr(int64(2)),
			},
			Metadata: map[string]*string{"owner": to.Ptr("web")},
		},
		{Name: to.Ptr("out/nomd5")},
	}}
	p, err := NewWithAPI(api, "web")
	require.NoError(t, err)

	objs, err := p.List(context.Background(), "out/", true)
	require.NoError(t, err)

	assert.Equal(t, []storage.RemoteObject{
		{Key: "out/a.txt", MD5: "49f68a5c8493ec2c0bf489821c21fc3b", Size: 2, Metadata: map[string]string{"owner": "web"}},
		{Key: "out/nomd5"},
	}, objs)
}

func TestProvider_DeleteAndErrors(t *testing.T) {
	api := &fakeAPI{}
	p, err := NewWithAPI(api, "web")
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), "old"))
	assert.Equal(t, []string{"old"}, api.deleted)

	api.err = errors.New("throttled")
	err = p.Delete(context.Background(), "x")
	assert.ErrorIs(t, err, api.err)
	assert.Contains(t, err.Error(), "push.azure.delete x")
}
