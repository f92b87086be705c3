package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pusherrors "github.com/input-output-hk/catalyst-forge-libs/push/errors"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/memory"
	"github.com/input-output-hk/catalyst-forge-libs/push/storage/minio"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name       string
		dest       string
		wantScheme string
		wantBucket string
		wantErr    bool
	}{
		{name: "s3", dest: "s3://my-bucket-name", wantScheme: "s3", wantBucket: "my-bucket-name"},
		{name: "trailing slashes", dest: "azure://container//", wantScheme: "azure", wantBucket: "container"},
		{name: "uppercase scheme", dest: "GCP://assets", wantScheme: "gcp", wantBucket: "assets"},
		{name: "missing scheme", dest: "my-bucket", wantErr: true},
		{name: "empty bucket", dest: "s3://", wantErr: true},
		{name: "empty", dest: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, bucket, err := ParseDestination(tt.dest)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pusherrors.ErrInvalidDestination)
				assert.Contains(t, err.Error(), "e.g. s3://my-bucket-name")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantBucket, bucket)
		})
	}
}

func TestRegistry_Open(t *testing.T) {
	ctx := context.Background()

	t.Run("custom factory", func(t *testing.T) {
		mem := memory.New()
		r := New()
		var gotBucket string
		var gotOpts Options
		require.NoError(t, r.Register("mem", func(_ context.Context, bucket string, opts Options) (storage.Provider, error) {
			gotBucket, gotOpts = bucket, opts
			return mem, nil
		}))

		p, err := r.Open(ctx, "mem://site", Options{Region: "eu-west-1"})
		require.NoError(t, err)
		assert.Same(t, mem, p)
		assert.Equal(t, "site", gotBucket)
		assert.Equal(t, "eu-west-1", gotOpts.Region)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := New().Open(ctx, "ftp://files", Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, pusherrors.ErrUnsupportedProvider)
		assert.Contains(t, err.Error(), "ftp is not supported")
	})

	t.Run("invalid destination", func(t *testing.T) {
		_, err := Default().Open(ctx, "not a uri", Options{})
		assert.ErrorIs(t, err, pusherrors.ErrInvalidDestination)
	})

	t.Run("minio", func(t *testing.T) {
		p, err := Default().Open(ctx, "minio://assets", Options{
			Endpoint:    "http://localhost:9000",
			AccountName: "minioadmin",
			AccountKey:  "minioadmin",
		})
		require.NoError(t, err)
		assert.IsType(t, &minio.Provider{}, p)
	})

	t.Run("minio without endpoint", func(t *testing.T) {
		_, err := Default().Open(ctx, "minio://assets", Options{})
		assert.True(t, pusherrors.IsInvalidConfig(err))
	})
}

func TestRegistry_Register(t *testing.T) {
	r := New()
	factory := func(context.Context, string, Options) (storage.Provider, error) { return memory.New(), nil }

	require.NoError(t, r.Register("Mem", factory))
	assert.Error(t, r.Register("mem", factory), "schemes are case-insensitive")
	assert.Error(t, r.Register("", factory))
	assert.Error(t, r.Register("other", nil))
	assert.Equal(t, []string{"mem"}, r.Schemes())
}

func TestDefault_Schemes(t *testing.T) {
	assert.Equal(t, []string{"azure", "gcp", "gs", "minio", "s3"}, Default().Schemes())
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		wantHost   string
		wantSecure bool
	}{
		{"http://localhost:9000", "localhost:9000", false},
		{"https://play.min.io/", "play.min.io", true},
		{"minio.internal:9000", "minio.internal:9000", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, secure := splitEndpoint(tt.in)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}
