// File: aio/file.go
//
// Ownership wrapper around a raw file descriptor. An owned File closes
// its descriptor exactly once; a borrowed one leaves closing to whoever
// handed the descriptor out.

package aio

import (
	"golang.org/x/sys/unix"

	"github.com/hxhue/coroutine-http-server/coro"
)

// File owns or borrows one non-blocking file descriptor. A File has a
// single owner; hand it off with Release rather than copying.
type File struct {
	fd    int
	owned bool
}

// NewFile wraps an owned descriptor and puts it into non-blocking mode
// unless nonblock is false.
func NewFile(fd int, nonblock bool) (*File, error) {
	if nonblock {
		if err := unix.SetNonblock(fd, true); err != nil {
			return nil, coro.NewSyscallError("fcntl O_NONBLOCK", err)
		}
	}
	return &File{fd: fd, owned: true}, nil
}

// Borrow wraps a descriptor without taking ownership of it.
func Borrow(fd int, nonblock bool) (*File, error) {
	f, err := NewFile(fd, nonblock)
	if err != nil {
		return nil, err
	}
	f.owned = false
	return f, nil
}

// Fd returns the raw descriptor, or -1 when the wrapper is empty.
func (f *File) Fd() int { return f.fd }

// Owned reports whether Close will close the descriptor.
func (f *File) Owned() bool { return f.owned }

// Release returns the raw descriptor and marks the wrapper empty, so a
// later Close is a no-op. This is how ownership moves between holders.
func (f *File) Release() int {
	fd := f.fd
	f.fd = -1
	f.owned = false
	return fd
}

// Close closes an owned descriptor exactly once. Closing a borrowed or
// already-closed wrapper does nothing.
func (f *File) Close() error {
	fd := f.fd
	owned := f.owned
	f.fd = -1
	f.owned = false
	if fd == -1 || !owned {
		return nil
	}
	return coro.NewSyscallError("close", unix.Close(fd))
}

// DupStdin duplicates standard input. When the descriptor is a tty,
// canonical mode and echo can be switched off for character-at-a-time
// input.
func DupStdin(canonical, echo bool) (*File, error) {
	f, err := dupStd(unix.Stdin)
	if err != nil {
		return nil, err
	}
	if (!canonical || !echo) && isTTY(f.fd) {
		tio, err := unix.IoctlGetTermios(f.fd, unix.TCGETS)
		if err != nil {
			_ = f.Close()
			return nil, coro.NewSyscallError("tcgetattr", err)
		}
		if !canonical {
			tio.Lflag &^= unix.ICANON
		}
		if !echo {
			tio.Lflag &^= unix.ECHO
		}
		if err := unix.IoctlSetTermios(f.fd, unix.TCSETS, tio); err != nil {
			_ = f.Close()
			return nil, coro.NewSyscallError("tcsetattr", err)
		}
	}
	return f, nil
}

// DupStdout duplicates standard output.
func DupStdout() (*File, error) { return dupStd(unix.Stdout) }

// DupStderr duplicates standard error.
func DupStderr() (*File, error) { return dupStd(unix.Stderr) }

func dupStd(fd int) (*File, error) {
	nfd, err := unix.Dup(fd)
	if err != nil {
		return nil, coro.NewSyscallError("dup", err)
	}
	return NewFile(nfd, true)
}

func isTTY(fd int) bool {
	_, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	return err == nil
}
