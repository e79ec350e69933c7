//go:build linux

// File: internal/poll/epoll_linux.go
//
// Thin wrapper around the Linux epoll(7) syscalls. Everything above this
// package speaks in terms of Event values; only this file touches the
// kernel interface.

package poll

import (
	"golang.org/x/sys/unix"
)

// Interest and result bits, re-exported so callers do not depend on
// golang.org/x/sys directly.
const (
	In    = uint32(unix.EPOLLIN)
	Out   = uint32(unix.EPOLLOUT)
	Hup   = uint32(unix.EPOLLHUP)
	RdHup = uint32(unix.EPOLLRDHUP)
	Err   = uint32(unix.EPOLLERR)
	Edge  = uint32(unix.EPOLLET)
)

// Event is one readiness notification.
type Event struct {
	FD   int32
	Bits uint32
}

// Epoll owns one epoll instance.
type Epoll struct {
	fd  int
	raw []unix.EpollEvent
	out []Event
}

const eventBatch = 128

// Create opens a new epoll instance.
func Create() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Epoll{
		fd:  fd,
		raw: make([]unix.EpollEvent, eventBatch),
		out: make([]Event, eventBatch),
	}, nil
}

// Add registers fd with the given interest bits.
func (e *Epoll) Add(fd int, bits uint32) error {
	ev := unix.EpollEvent{Events: bits, Fd: int32(fd)}
	return unix.EpollCtl(e.fd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// Del removes fd. Removing a descriptor that the kernel already forgot
// (for instance because it was closed) is not an error worth reporting.
func (e *Epoll) Del(fd int) error {
	err := unix.EpollCtl(e.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.EBADF || err == unix.ENOENT {
		return nil
	}
	return err
}

// Wait blocks until at least one descriptor is ready or the timeout (in
// milliseconds, -1 for none) expires. The returned slice is reused by
// the next call. EINTR is reported as an empty result.
func (e *Epoll) Wait(msec int) ([]Event, error) {
	n, err := unix.EpollWait(e.fd, e.raw, msec)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		e.out[i] = Event{FD: e.raw[i].Fd, Bits: e.raw[i].Events}
	}
	return e.out[:n], nil
}

// Close releases the epoll descriptor.
func (e *Epoll) Close() error {
	return unix.Close(e.fd)
}
