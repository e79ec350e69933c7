// File: aio/reader.go
//
// Buffered reading over a non-blocking descriptor.

package aio

import (
	"bytes"
	"fmt"

	"github.com/hxhue/coroutine-http-server/coro"
)

// DefaultBufferSize is the capacity of stream buffers unless a caller
// brings its own.
const DefaultBufferSize = 8 * 1024

// Reader buffers reads from a File. Bytes in buf[r:w] are unread; an
// empty window triggers exactly one best-effort refill.
type Reader struct {
	f   *File
	buf []byte
	r   int
	w   int
}

// NewReader creates a Reader with the default buffer size.
func NewReader(f *File) *Reader {
	return NewReaderBuffer(f, make([]byte, DefaultBufferSize))
}

// NewReaderSize creates a Reader with a buffer of the given size.
func NewReaderSize(f *File, size int) *Reader {
	return NewReaderBuffer(f, make([]byte, size))
}

// NewReaderBuffer creates a Reader over a caller-supplied buffer, which
// typically comes from a pool.BytePool.
func NewReaderBuffer(f *File, buf []byte) *Reader {
	if len(buf) == 0 {
		buf = make([]byte, DefaultBufferSize)
	}
	return &Reader{f: f, buf: buf}
}

// File returns the underlying descriptor wrapper.
func (b *Reader) File() *File { return b.f }

// Buffered reports the number of unread bytes in the buffer.
func (b *Reader) Buffered() int { return b.w - b.r }

func (b *Reader) refill(co *coro.Coro) error {
	b.r, b.w = 0, 0
	for {
		n, eof, err := ReadOnce(co, b.f, b.buf)
		if err != nil {
			return err
		}
		if n > 0 {
			b.w = n
			return nil
		}
		if eof {
			return ErrEOF
		}
	}
}

// ReadByte returns the next byte of the stream.
func (b *Reader) ReadByte(co *coro.Coro) (byte, error) {
	if b.r == b.w {
		if err := b.refill(co); err != nil {
			return 0, err
		}
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

// ReadFull reads exactly n bytes. A stream that ends early returns the
// bytes read so far together with ErrEOF.
func (b *Reader) ReadFull(co *coro.Coro, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", coro.ErrInvalidArgument, n)
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		if b.r == b.w {
			if err := b.refill(co); err != nil {
				return out, err
			}
		}
		take := n - len(out)
		if avail := b.w - b.r; take > avail {
			take = avail
		}
		out = append(out, b.buf[b.r:b.r+take]...)
		b.r += take
	}
	return out, nil
}

// ReadLine reads up to and excluding the first occurrence of the
// multi-byte delimiter. The delimiter is matched byte by byte, so a
// match straddling a refill boundary is still found, and a partial
// match that does not complete stays part of the returned data. A
// stream ending before the delimiter returns the partial line with
// ErrEOF.
func (b *Reader) ReadLine(co *coro.Coro, delim string) (string, error) {
	if delim == "" {
		return "", fmt.Errorf("%w: empty delimiter", coro.ErrInvalidArgument)
	}
	d := []byte(delim)
	var out []byte
	for !bytes.HasSuffix(out, d) {
		c, err := b.ReadByte(co)
		if err != nil {
			return string(out), err
		}
		out = append(out, c)
	}
	return string(out[:len(out)-len(d)]), nil
}
