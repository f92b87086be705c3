package pool

import (
	"bytes"
	"sync"
)

const (
	// ChunkSize is the read chunk size used when streaming local files (4MiB).
	ChunkSize = 4 * 1024 * 1024

	// maxPooledBuffer caps the capacity of output buffers kept for reuse.
	maxPooledBuffer = 64 * 1024 * 1024
)

// BufferPool manages reusable read chunks and output buffers.
type BufferPool struct {
	chunks  *sync.Pool
	outputs *sync.Pool
}

// NewBufferPool creates a new buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		chunks: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, ChunkSize)
				return &buf
			},
		},
		outputs: &sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// GetChunk returns a ChunkSize read buffer.
// The caller is responsible for calling PutChunk to return the buffer to the pool.
func (bp *BufferPool) GetChunk() []byte {
	bufPtr := bp.chunks.Get().(*[]byte)
	return (*bufPtr)[:ChunkSize]
}

// PutChunk returns a read buffer to the pool. Buffers of any other
// capacity are dropped.
func (bp *BufferPool) PutChunk(buf []byte) {
	if cap(buf) != ChunkSize {
		return
	}
	buf = buf[:ChunkSize]
	bp.chunks.Put(&buf)
}

// GetOutput returns an empty output buffer.
func (bp *BufferPool) GetOutput() *bytes.Buffer {
	buf := bp.outputs.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutOutput returns an output buffer to the pool. Oversized buffers are
// not pooled to avoid memory bloat.
func (bp *BufferPool) PutOutput(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	bp.outputs.Put(buf)
}

// Global buffer pool instance shared by the pipelines.
var globalBufferPool = NewBufferPool()

// Default returns the shared buffer pool.
func Default() *BufferPool {
	return globalBufferPool
}
