// File: transport/tcp.go
//
// Non-blocking TCP socket operations: listen, accept, connect. All of
// them run the syscall once and await readiness through the loop when
// the kernel says "not yet".

package transport

import (
	"golang.org/x/sys/unix"

	"github.com/hxhue/coroutine-http-server/aio"
	"github.com/hxhue/coroutine-http-server/coro"
)

func newSocket(family int) (*aio.File, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, coro.NewSyscallError("socket", err)
	}
	// Already non-blocking via SOCK_NONBLOCK.
	return aio.NewFile(fd, false)
}

// Listen binds a listening socket to addr. SO_REUSEADDR is set so that
// restarts do not trip over TIME_WAIT entries.
func Listen(addr Addr, backlog int) (*aio.File, error) {
	sa, family, err := addr.sockaddr()
	if err != nil {
		return nil, err
	}
	f, err := newSocket(family)
	if err != nil {
		return nil, err
	}
	if err := unix.SetsockoptInt(f.Fd(), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = f.Close()
		return nil, coro.NewSyscallError("setsockopt SO_REUSEADDR", err)
	}
	if err := unix.Bind(f.Fd(), sa); err != nil {
		_ = f.Close()
		return nil, coro.NewSyscallError("bind", err)
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	if err := unix.Listen(f.Fd(), backlog); err != nil {
		_ = f.Close()
		return nil, coro.NewSyscallError("listen", err)
	}
	return f, nil
}

// ListenPort returns the local port a listening socket was bound to,
// which matters when the caller asked for port 0.
func ListenPort(l *aio.File) (int, error) {
	sa, err := unix.Getsockname(l.Fd())
	if err != nil {
		return 0, coro.NewSyscallError("getsockname", err)
	}
	return AddrFromSockaddr(sa).Port, nil
}

// Accept awaits a pending connection on the listening socket and
// accepts it once. Transient failures return to the wait loop.
func Accept(co *coro.Coro, l *aio.File) (*aio.File, Addr, error) {
	for {
		ev, err := coro.WaitEvent(co, l.Fd(), coro.Readable)
		if err != nil {
			return nil, Addr{}, err
		}
		if ev&coro.Readable == 0 {
			if ev.HasHangup() {
				return nil, Addr{}, aio.ErrEOF
			}
			continue
		}
		fd, sa, err := unix.Accept4(l.Fd(), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EAGAIN || err == unix.ECONNABORTED {
			continue
		}
		if err != nil {
			return nil, Addr{}, coro.NewSyscallError("accept", err)
		}
		f, err := aio.NewFile(fd, false)
		if err != nil {
			_ = unix.Close(fd)
			return nil, Addr{}, err
		}
		return f, AddrFromSockaddr(sa), nil
	}
}

// Connect connects the socket to addr. An in-progress connect awaits
// writability and then reads the pending socket error; a non-zero value
// is reported as the connect failure.
func Connect(co *coro.Coro, f *aio.File, addr Addr) error {
	sa, _, err := addr.sockaddr()
	if err != nil {
		return err
	}
	cerr := unix.Connect(f.Fd(), sa)
	if cerr != nil && cerr != unix.EINPROGRESS {
		return coro.NewSyscallError("connect", cerr)
	}
	if cerr == unix.EINPROGRESS {
		if _, err := coro.WaitEvent(co, f.Fd(), coro.Writable); err != nil {
			return err
		}
		soErr, err := unix.GetsockoptInt(f.Fd(), unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return coro.NewSyscallError("getsockopt SO_ERROR", err)
		}
		if soErr != 0 {
			return coro.NewSyscallError("connect", unix.Errno(soErr))
		}
	}
	return nil
}

// Dial resolves nothing further: it creates a socket for addr's family
// and connects it.
func Dial(co *coro.Coro, addr Addr) (*aio.File, error) {
	_, family, err := addr.sockaddr()
	if err != nil {
		return nil, err
	}
	f, err := newSocket(family)
	if err != nil {
		return nil, err
	}
	if err := Connect(co, f, addr); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
