package pool

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5"
)

// spoolPrefix names the temporary files created by spilled spools.
const spoolPrefix = "snap-push-spool-"

// Spool collects written bytes in a pooled output buffer until more than
// threshold bytes have been written, then moves everything to a temporary
// file on tmp. A threshold of zero or less never spills.
//
// A Spool is not safe for concurrent use. Close must be called once the
// reader returned by Reader is no longer needed.
type Spool struct {
	pool      *BufferPool
	tmp       billy.Filesystem
	threshold int64

	buf  *bytes.Buffer
	file billy.File
	size int64
}

// NewSpool returns an empty spool backed by bp.
func (bp *BufferPool) NewSpool(tmp billy.Filesystem, threshold int64) *Spool {
	return &Spool{
		pool:      bp,
		tmp:       tmp,
		threshold: threshold,
		buf:       bp.GetOutput(),
	}
}

// Write implements io.Writer.
func (s *Spool) Write(p []byte) (int, error) {
	if s.file == nil && s.threshold > 0 && s.size+int64(len(p)) > s.threshold {
		if err := s.spill(); err != nil {
			return 0, err
		}
	}

	var (
		n   int
		err error
	)
	if s.file != nil {
		n, err = s.file.Write(p)
	} else {
		n, err = s.buf.Write(p)
	}
	s.size += int64(n)
	return n, err //nolint:wrapcheck // io.Writer contract
}

func (s *Spool) spill() error {
	if s.tmp == nil {
		return fmt.Errorf("spool: no temporary filesystem to spill %d bytes to", s.size)
	}
	f, err := s.tmp.TempFile("", spoolPrefix)
	if err != nil {
		return fmt.Errorf("spool: creating temporary file: %w", err)
	}
	if _, err := f.Write(s.buf.Bytes()); err != nil {
		_ = f.Close()
		_ = s.tmp.Remove(f.Name())
		return fmt.Errorf("spool: writing %s: %w", f.Name(), err)
	}
	s.pool.PutOutput(s.buf)
	s.buf = nil
	s.file = f
	return nil
}

// Len returns the number of bytes written so far.
func (s *Spool) Len() int64 {
	return s.size
}

// Spilled reports whether the content lives in a temporary file.
func (s *Spool) Spilled() bool {
	return s.file != nil
}

// Reader returns a reader over everything written. Writing after Reader is
// called is not supported.
func (s *Spool) Reader() (io.Reader, error) {
	if s.file == nil {
		return bytes.NewReader(s.buf.Bytes()), nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("spool: rewinding %s: %w", s.file.Name(), err)
	}
	return io.LimitReader(s.file, s.size), nil
}

// Close releases the buffer or removes the temporary file.
func (s *Spool) Close() error {
	if s.buf != nil {
		s.pool.PutOutput(s.buf)
		s.buf = nil
	}
	if s.file == nil {
		return nil
	}

	name := s.file.Name()
	closeErr := s.file.Close()
	s.file = nil
	if err := s.tmp.Remove(name); err != nil {
		return fmt.Errorf("spool: removing %s: %w", name, err)
	}
	if closeErr != nil {
		return fmt.Errorf("spool: closing %s: %w", name, closeErr)
	}
	return nil
}
