package coro_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hxhue/coroutine-http-server/coro"
)

func TestWhenAllValues(t *testing.T) {
	l := newTestLoop(t)
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		ta := coro.New(l, func(co *coro.Coro) (int, error) {
			if err := coro.Sleep(co, 10*time.Millisecond); err != nil {
				return 0, err
			}
			return 1, nil
		})
		tb := coro.New(l, func(co *coro.Coro) (string, error) {
			return "two", nil
		})
		a, b, err := coro.WhenAll2(co, ta, tb)
		if err != nil {
			return coro.Void{}, err
		}
		if a != 1 || b != "two" {
			t.Errorf("WhenAll2 = (%d, %q), want (1, two)", a, b)
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWhenAllPropagatesFirstError(t *testing.T) {
	l := newTestLoop(t)
	boom := errors.New("boom")
	start := time.Now()
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		sleeper := coro.NewSleep(l, 50*time.Millisecond)
		failing := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
			return coro.Void{}, boom
		})
		return coro.Void{}, coro.WhenAll(co, sleeper, failing)
	})
	_, err := coro.Run(l, root)
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want %v", err, boom)
	}
	// The failing child does not cut the group short: the sleeper is
	// still awaited to completion.
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("elapsed %v, want >= 50ms", elapsed)
	}
}

func TestWhenAnyReturnsFirstCompletion(t *testing.T) {
	l := newTestLoop(t)
	start := time.Now()
	root := coro.New(l, func(co *coro.Coro) (int, error) {
		slow := coro.NewSleep(l, 500*time.Millisecond)
		fast := coro.New(l, func(co *coro.Coro) (int, error) {
			if err := coro.Sleep(co, 10*time.Millisecond); err != nil {
				return 0, err
			}
			return 99, nil
		})
		idx, err := coro.WhenAny(co, slow, fast)
		if err != nil {
			return 0, err
		}
		if idx != 1 {
			t.Errorf("winner index = %d, want 1", idx)
		}
		// The losing sibling is destroyed before WhenAny returns; its
		// timer registration must be gone.
		if n := l.PendingTimers(); n != 0 {
			t.Errorf("pending timers after WhenAny = %d, want 0", n)
		}
		v, err := fast.Result()
		return v, err
	})
	v, err := coro.Run(l, root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v != 99 {
		t.Errorf("winner value = %d, want 99", v)
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("elapsed %v; WhenAny waited for the loser", elapsed)
	}
}

func TestWhenAnyEmpty(t *testing.T) {
	l := newTestLoop(t)
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		_, err := coro.WhenAny(co)
		return coro.Void{}, err
	})
	_, err := coro.Run(l, root)
	if !errors.Is(err, coro.ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
}

func TestWithTimeout(t *testing.T) {
	l := newTestLoop(t)
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		op := coro.NewSleep(l, time.Hour)
		timedOut, err := coro.WithTimeout(co, 20*time.Millisecond, op)
		if err != nil {
			return coro.Void{}, err
		}
		if !timedOut {
			t.Error("expected timeout")
		}
		if !op.Done() {
			t.Error("timed-out operation should be destroyed")
		}
		if n := l.PendingTimers(); n != 0 {
			t.Errorf("pending timers after timeout = %d, want 0", n)
		}
		return coro.Void{}, nil
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWhenAllEmpty(t *testing.T) {
	l := newTestLoop(t)
	root := coro.New(l, func(co *coro.Coro) (coro.Void, error) {
		return coro.Void{}, coro.WhenAll(co)
	})
	if _, err := coro.Run(l, root); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
