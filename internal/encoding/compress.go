package encoding

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/input-output-hk/catalyst-forge-libs/push/pushtypes"
)

// Compress writes src to dst transformed by enc. Raw copies unchanged.
// Output is deterministic for identical input.
func Compress(enc pushtypes.Encoding, dst io.Writer, src io.Reader) error {
	w, err := newWriter(enc, dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return fmt.Errorf("compressing %s: %w", enc, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing %s stream: %w", enc, err)
	}
	return nil
}

// NewReader returns a reader that decodes r from enc.
func NewReader(enc pushtypes.Encoding, r io.Reader) (io.ReadCloser, error) {
	switch enc {
	case pushtypes.EncodingRaw:
		return io.NopCloser(r), nil
	case pushtypes.EncodingGzip:
		return gzip.NewReader(r)
	case pushtypes.EncodingBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	case pushtypes.EncodingZstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %q", enc)
	}
}

func newWriter(enc pushtypes.Encoding, dst io.Writer) (io.WriteCloser, error) {
	switch enc {
	case pushtypes.EncodingRaw:
		return nopWriteCloser{dst}, nil
	case pushtypes.EncodingGzip:
		return gzip.NewWriterLevel(dst, gzip.BestCompression)
	case pushtypes.EncodingBrotli:
		return brotli.NewWriterLevel(dst, brotli.BestCompression), nil
	case pushtypes.EncodingZstd:
		return zstd.NewWriter(dst,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderConcurrency(1),
		)
	default:
		return nil, fmt.Errorf("unsupported encoding: %q", enc)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
