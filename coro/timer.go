// File: coro/timer.go
//
// Timer scheduler: a binary heap of deadlines ordered by
// (deadline, sequence). The sequence number is a monotonic insertion
// counter, which keeps firing order deterministic across runs.

package coro

import (
	"container/heap"
	"fmt"
	"time"
)

type timerEntry struct {
	deadline time.Time
	seq      uint64
	co       *Coro
	index    int // heap position, -1 once popped or removed
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if !h[i].deadline.Equal(h[j].deadline) {
		return h[i].deadline.Before(h[j].deadline)
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type timerSet struct {
	h   timerHeap
	seq uint64
}

func (s *timerSet) len() int { return len(s.h) }

func (s *timerSet) add(deadline time.Time, co *Coro) *timerEntry {
	e := &timerEntry{deadline: deadline, seq: s.seq, co: co}
	s.seq++
	heap.Push(&s.h, e)
	return e
}

// remove deregisters e. Idempotent: the sleeping frame calls it on both
// the normal and the unwind path, and the entry may already have been
// popped by the scheduler.
func (s *timerSet) remove(e *timerEntry) {
	if e.index >= 0 {
		heap.Remove(&s.h, e.index)
	}
}

// runTimers fires every due entry in deadline order and reports the
// delay until the next pending deadline, if any. Entries inserted by a
// resumed frame are eligible in the same pass when already due.
func (l *Loop) runTimers() (time.Duration, bool) {
	for l.timers.len() > 0 {
		e := l.timers.h[0]
		now := time.Now()
		if e.deadline.After(now) {
			return e.deadline.Sub(now), true
		}
		heap.Pop(&l.timers.h)
		l.resumeAndPark(e.co)
	}
	return 0, false
}

// Sleep suspends the calling frame for d. Negative durations are
// rejected.
func Sleep(co *Coro, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative sleep duration %v", ErrInvalidArgument, d)
	}
	return SleepUntil(co, time.Now().Add(d))
}

// SleepUntil suspends the calling frame until the monotonic deadline.
// A deadline in the past returns immediately.
func SleepUntil(co *Coro, deadline time.Time) error {
	if !deadline.After(time.Now()) {
		return nil
	}
	e := co.loop.timers.add(deadline, co)
	defer co.loop.timers.remove(e)
	co.suspend()
	return nil
}

// NewSleep returns a task that completes after d. It is the building
// block for timeouts: WhenAny(op, NewSleep(loop, d)).
func NewSleep(l *Loop, d time.Duration) *Task[Void] {
	return New(l, func(co *Coro) (Void, error) {
		return Void{}, Sleep(co, d)
	})
}

// PendingTimers reports the number of armed timer entries.
func (l *Loop) PendingTimers() int { return l.timers.len() }
