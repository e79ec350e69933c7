// File: aio/writer.go
//
// Buffered writing over a non-blocking descriptor.

package aio

import (
	"github.com/hxhue/coroutine-http-server/coro"
)

// Writer buffers writes to a File. Bytes in buf[:n] are pending; a full
// buffer flushes before accepting more.
type Writer struct {
	f   *File
	buf []byte
	n   int
}

// NewWriter creates a Writer with the default buffer size.
func NewWriter(f *File) *Writer {
	return NewWriterBuffer(f, make([]byte, DefaultBufferSize))
}

// NewWriterSize creates a Writer with a buffer of the given size.
func NewWriterSize(f *File, size int) *Writer {
	return NewWriterBuffer(f, make([]byte, size))
}

// NewWriterBuffer creates a Writer over a caller-supplied buffer.
func NewWriterBuffer(f *File, buf []byte) *Writer {
	if len(buf) == 0 {
		buf = make([]byte, DefaultBufferSize)
	}
	return &Writer{f: f, buf: buf}
}

// File returns the underlying descriptor wrapper.
func (b *Writer) File() *File { return b.f }

// Pending reports the number of buffered bytes not yet flushed.
func (b *Writer) Pending() int { return b.n }

// WriteByte appends one byte, flushing first when the buffer is full.
func (b *Writer) WriteByte(co *coro.Coro, c byte) error {
	if b.n == len(b.buf) {
		if err := b.Flush(co); err != nil {
			return err
		}
	}
	b.buf[b.n] = c
	b.n++
	return nil
}

// Write appends p. A slice that does not fit the free space flushes the
// buffer and then goes to the descriptor directly, avoiding the double
// copy.
func (b *Writer) Write(co *coro.Coro, p []byte) error {
	if len(p) <= len(b.buf)-b.n {
		copy(b.buf[b.n:], p)
		b.n += len(p)
		return nil
	}
	if err := b.Flush(co); err != nil {
		return err
	}
	return writeAll(co, b.f, p)
}

// WriteString appends s with the same short-circuit rule as Write.
func (b *Writer) WriteString(co *coro.Coro, s string) error {
	if len(s) <= len(b.buf)-b.n {
		copy(b.buf[b.n:], s)
		b.n += len(s)
		return nil
	}
	if err := b.Flush(co); err != nil {
		return err
	}
	return writeAll(co, b.f, []byte(s))
}

// Flush pushes all pending bytes to the descriptor, looping over
// partial writes. A hangup with no progress reports ErrEOF.
func (b *Writer) Flush(co *coro.Coro) error {
	if b.n == 0 {
		return nil
	}
	p := b.buf[:b.n]
	b.n = 0
	return writeAll(co, b.f, p)
}
