package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/s3/internal/testutil"
)

func TestNew_RequiresBucket(t *testing.T) {
	_, err := NewWithClient(&testutil.MockS3Client{}, "")
	assert.ErrorIs(t, err, pusherrors.ErrMissingBucket)

	_, err = New(context.Background(), "")
	assert.ErrorIs(t, err, pusherrors.ErrMissingBucket)
}

func TestProvider_Upload(t *testing.T) {
	var got *s3.PutObjectInput
	var body string
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			data, err := io.ReadAll(in.Body)
			require.NoError(t, err)
			body = string(data)
			return &s3.PutObjectOutput{ETag: aws.String(`"etag"`)}, nil
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	err = p.Upload(context.Background(), &storage.UploadRequest{
		Body:            strings.NewReader("compressed"),
		Key:             "a.js.br",
		ContentType:     "text/javascript",
		ContentLength:   10,
		ContentEncoding: "br",
		MD5:             "49f68a5c8493ec2c0bf489821c21fc3b",
		Metadata:        map[string]string{"build": "42"},
		Tags:            map[string]string{"env": "prod", "team": "web & ops"},
		CacheControl:    "max-age=60",
		MakePublic:      true,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "site", aws.ToString(got.Bucket))
	assert.Equal(t, "a.js.br", aws.ToString(got.Key))
	assert.Equal(t, "text/javascript", aws.ToString(got.ContentType))
	assert.Equal(t, int64(10), aws.ToInt64(got.ContentLength))
	assert.Equal(t, "br", aws.ToString(got.ContentEncoding))
	assert.Equal(t, "max-age=60", aws.ToString(got.CacheControl))
	assert.Equal(t, map[string]string{"build": "42"}, got.Metadata)
	assert.Equal(t, types.ObjectCannedACLPublicRead, got.ACL)
	assert.Equal(t, "compressed", body)

	tags, err := url.ParseQuery(aws.ToString(got.Tagging))
	require.NoError(t, err)
	assert.Equal(t, "prod", tags.Get("env"))
	assert.Equal(t, "web & ops", tags.Get("team"))
}

func TestProvider_UploadMinimal(t *testing.T) {
	var got *s3.PutObjectInput
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			got = in
			return &s3.PutObjectOutput{}, nil
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	require.NoError(t, p.Upload(context.Background(), &storage.UploadRequest{
		Body:        strings.NewReader("x"),
		Key:         "a.txt",
		ContentType: "text/plain",
	}))

	assert.Nil(t, got.ContentEncoding)
	assert.Nil(t, got.CacheControl)
	assert.Nil(t, got.Tagging)
	assert.Empty(t, got.ACL)
}

func TestProvider_UploadError(t *testing.T) {
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "no"}
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	err = p.Upload(context.Background(), &storage.UploadRequest{Key: "a", Body: strings.NewReader("")})
	require.Error(t, err)
	assert.True(t, pusherrors.IsAccessDenied(err))
	assert.Contains(t, err.Error(), "push.s3.upload a")
}

func TestProvider_ListPaginates(t *testing.T) {
	calls := 0
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			calls++
			assert.Equal(t, "out/", aws.ToString(in.Prefix))
			if in.ContinuationToken == nil {
				return &s3.ListObjectsV2Output{
					Contents: []types.Object{
						{Key: aws.String("out/a.txt"), ETag: aws.String(`"49F68A5C8493EC2C0BF489821C21FC3B"`), Size: aws.Int64(2)},
					},
					IsTruncated:           aws.Bool(true),
					NextContinuationToken: aws.String("page-2"),
				}, nil
			}
			assert.Equal(t, "page-2", aws.ToString(in.ContinuationToken))
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("out/big.bin"), ETag: aws.String(`"d41d8cd98f00b204e9800998ecf8427e-3"`), Size: aws.Int64(30)},
				},
				IsTruncated: aws.Bool(false),
			}, nil
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	objs, err := p.List(context.Background(), "out/", false)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, []storage.RemoteObject{
		{Key: "out/a.txt", MD5: "49f68a5c8493ec2c0bf489821c21fc3b", Size: 2},
		{Key: "out/big.bin", MD5: "", Size: 30},
	}, objs)
}

func TestProvider_ListWithMetadata(t *testing.T) {
	var mu sync.Mutex
	var heads []string
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return &s3.ListObjectsV2Output{
				Contents: []types.Object{
					{Key: aws.String("a"), ETag: aws.String(`"aa"`)},
					{Key: aws.String("b"), ETag: aws.String(`"bb"`)},
				},
			}, nil
		},
		HeadObjectFunc: func(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
			mu.Lock()
			heads = append(heads, aws.ToString(in.Key))
			mu.Unlock()
			return &s3.HeadObjectOutput{Metadata: map[string]string{"owner": aws.ToString(in.Key)}}, nil
		},
	}
	p, err := NewWithClient(mock, "site", WithListMetadataConcurrency(2))
	require.NoError(t, err)

	objs, err := p.List(context.Background(), "", true)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b"}, heads)
	assert.Equal(t, map[string]string{"owner": "a"}, objs[0].Metadata)
	assert.Equal(t, map[string]string{"owner": "b"}, objs[1].Metadata)
}

func TestProvider_ListError(t *testing.T) {
	boom := errors.New("connection reset")
	mock := &testutil.MockS3Client{
		ListObjectsV2Func: func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
			return nil, boom
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	_, err = p.List(context.Background(), "", false)
	assert.ErrorIs(t, err, boom)
}

func TestProvider_Delete(t *testing.T) {
	var deleted []string
	mock := &testutil.MockS3Client{
		DeleteObjectFunc: func(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
			if aws.ToString(in.Key) == "missing" {
				return nil, &types.NoSuchKey{Message: aws.String("gone")}
			}
			deleted = append(deleted, aws.ToString(in.Key))
			return &s3.DeleteObjectOutput{}, nil
		},
	}
	p, err := NewWithClient(mock, "site")
	require.NoError(t, err)

	require.NoError(t, p.Delete(context.Background(), "old.txt"))
	assert.Equal(t, []string{"old.txt"}, deleted)

	err = p.Delete(context.Background(), "missing")
	assert.True(t, pusherrors.IsObjectNotFound(err))
}

func TestEtagMD5(t *testing.T) {
	tests := []struct {
		etag string
		want string
	}{
		{`"ABCDEF"`, "abcdef"},
		{"abcdef", "abcdef"},
		{`"abc-2"`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.etag, func(t *testing.T) {
			assert.Equal(t, tt.want, etagMD5(tt.etag))
		})
	}
}
