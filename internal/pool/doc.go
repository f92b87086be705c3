// Package pool provides buffer reuse for the file pipelines.
// Read chunks are fixed at ChunkSize; compression output buffers grow as
// needed and are recycled after the upload that consumed them completes.
// A Spool moves output that outgrows its threshold to a temporary file.
package pool
