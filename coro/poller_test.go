package coro_test

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hxhue/coroutine-http-server/coro"
)

func makePipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestWaitEventReadable(t *testing.T) {
	l := newTestLoop(t)
	rfd, wfd := makePipe(t)

	writer := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		if err := coro.Sleep(co, 10*time.Millisecond); err != nil {
			return coro.Void{}, err
		}
		_, err := unix.Write(wfd, []byte("x"))
		return coro.Void{}, err
	})
	reader := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		ev, err := coro.WaitEvent(co, rfd, coro.Readable)
		if err != nil {
			return coro.Void{}, err
		}
		if ev&coro.Readable == 0 {
			t.Errorf("events = %v, want Readable", ev)
		}
		var buf [1]byte
		if _, err := unix.Read(rfd, buf[:]); err != nil {
			return coro.Void{}, err
		}
		return coro.Void{}, nil
	})

	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		return coro.Void{}, coro.WhenAll(co, reader, writer)
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := l.RegisteredFDs(); n != 0 {
		t.Errorf("registered fds after run = %d, want 0", n)
	}
}

func TestSingleWaiterPerFD(t *testing.T) {
	l := newTestLoop(t)
	rfd, _ := makePipe(t)

	waitTask := func() *coro.Task[coro.Void] {
		return coro.New(l, func(co *coro.Coro) (coro.Void, error) {
			_, err := coro.WaitEvent(co, rfd, coro.Readable)
			return coro.Void{}, err
		})
	}

	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		first := waitTask()
		second := waitTask()
		l.Spawn(first)
		// Give the driver a chance to park the first waiter on the fd.
		if err := coro.Sleep(co, 5*time.Millisecond); err != nil {
			return coro.Void{}, err
		}
		_, err := coro.Await(co, second)
		if !errors.Is(err, coro.ErrFDBusy) {
			t.Errorf("second waiter: got %v, want ErrFDBusy", err)
		}
		first.Drop(co)
		if n := l.RegisteredFDs(); n != 0 {
			t.Errorf("registered fds after drop = %d, want 0", n)
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRegisterDeregisterBalance(t *testing.T) {
	l := newTestLoop(t)
	rfd, wfd := makePipe(t)

	const rounds = 32
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		for i := 0; i < rounds; i++ {
			if _, err := unix.Write(wfd, []byte{byte(i)}); err != nil {
				return coro.Void{}, err
			}
			if _, err := coro.WaitEvent(co, rfd, coro.Readable); err != nil {
				return coro.Void{}, err
			}
			var buf [1]byte
			if _, err := unix.Read(rfd, buf[:]); err != nil {
				return coro.Void{}, err
			}
			if n := l.RegisteredFDs(); n != 0 {
				t.Fatalf("round %d: registered fds = %d, want 0", i, n)
			}
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestHangupReported(t *testing.T) {
	l := newTestLoop(t)
	rfd, wfd := makePipe(t)

	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		if err := unix.Close(wfd); err != nil {
			return coro.Void{}, err
		}
		ev, err := coro.WaitEvent(co, rfd, coro.Readable|coro.ReadHangup)
		if err != nil {
			return coro.Void{}, err
		}
		if !ev.HasHangup() {
			t.Errorf("events = %v, want a hangup bit", ev)
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
