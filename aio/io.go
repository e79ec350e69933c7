// File: aio/io.go
//
// Best-effort single-shot reads and writes: await readiness once, issue
// the syscall once, and surface partial transfers to the caller. The
// buffered streams build their retry loops on top of these.

package aio

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/hxhue/coroutine-http-server/coro"
)

// ErrEOF reports that the peer cleanly closed the stream.
var ErrEOF = errors.New("end of file")

// ReadOnce waits until f is readable (or hung up) and performs one
// read. It returns the number of bytes transferred and eof=true when no
// more data will ever arrive. Short reads are legal; callers retry.
func ReadOnce(co *coro.Coro, f *File, p []byte) (n int, eof bool, err error) {
	ev, err := coro.WaitEvent(co, f.Fd(), coro.Readable|coro.ReadHangup)
	if err != nil {
		return 0, false, err
	}
	if ev&(coro.Readable|coro.ErrCond) == 0 {
		// Hangup (or spurious wake) with nothing left to read.
		return 0, ev.HasHangup(), nil
	}
	n, rerr := unix.Read(f.Fd(), p)
	if rerr == unix.EAGAIN {
		return 0, false, nil
	}
	if rerr == unix.ECONNRESET {
		return 0, true, nil
	}
	if rerr != nil {
		return 0, false, coro.NewSyscallError("read", rerr)
	}
	if n == 0 && len(p) > 0 {
		// Readable with zero bytes is the read-side close.
		return 0, true, nil
	}
	return n, false, nil
}

// WriteOnce waits until f is writable and performs one write. eof=true
// means the peer hung up and nothing was transferred.
func WriteOnce(co *coro.Coro, f *File, p []byte) (n int, eof bool, err error) {
	ev, err := coro.WaitEvent(co, f.Fd(), coro.Writable)
	if err != nil {
		return 0, false, err
	}
	if ev&(coro.Writable|coro.ErrCond) == 0 {
		return 0, ev.HasHangup(), nil
	}
	n, werr := unix.Write(f.Fd(), p)
	if werr == unix.EAGAIN {
		return 0, false, nil
	}
	if werr == unix.EPIPE || werr == unix.ECONNRESET {
		return 0, true, nil
	}
	if werr != nil {
		return 0, false, coro.NewSyscallError("write", werr)
	}
	return n, false, nil
}

// writeAll pushes the whole slice through WriteOnce, looping over
// partial writes.
func writeAll(co *coro.Coro, f *File, p []byte) error {
	for len(p) > 0 {
		n, eof, err := WriteOnce(co, f, p)
		if err != nil {
			return err
		}
		if eof {
			return ErrEOF
		}
		p = p[n:]
	}
	return nil
}
