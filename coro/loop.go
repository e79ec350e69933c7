// File: coro/loop.go
//
// The event loop: alternates the timer scheduler and the readiness
// scheduler, draining a FIFO ready queue of freshly spawned frames in
// between. The loop runs on the goroutine that calls Run and parks
// whenever it hands control to a frame.

package coro

import (
	"sort"
	"time"

	"github.com/eapache/queue"
	"github.com/hashicorp/go-multierror"
)

// Loop drives tasks until their work is done. All structures are owned
// by the single thread alternating between the driver and frames.
type Loop struct {
	driver *Coro
	ready  *queue.Queue // of *Coro, created but not yet started
	timers timerSet
	poller *poller

	spawned map[uint64]Awaitable
	spawnID uint64
}

// NewLoop creates a loop together with its readiness scheduler.
func NewLoop() (*Loop, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	l := &Loop{
		ready:   queue.New(),
		poller:  p,
		spawned: make(map[uint64]Awaitable),
	}
	l.driver = &Coro{loop: l, resume: make(chan resumeMode, 1), state: stateRunning}
	return l, nil
}

// Spawn detaches a task: it is registered under a monotonic id and
// started on the next loop iteration. Completion removes the entry, so
// the registry holds live tasks only. Spawned tasks that are still
// pending when the loop is closed are destroyed deterministically.
func (l *Loop) Spawn(aw Awaitable) {
	c := aw.frame()
	id := l.spawnID
	l.spawnID++
	l.spawned[id] = aw
	c.onDone = append(c.onDone, func() { delete(l.spawned, id) })
	l.ready.Add(c)
}

// SpawnCount reports the number of live detached tasks.
func (l *Loop) SpawnCount() int { return len(l.spawned) }

// Drop destroys an incomplete task from outside any frame. It must not
// be called while the loop is running; use Task.Drop from inside a
// frame instead.
func (l *Loop) Drop(aw Awaitable) {
	aw.dropFrom(l.driver)
}

// resumeAndPark hands control to c and parks the driver until control
// returns, either because c suspended or because a completion chain
// ended at the driver.
func (l *Loop) resumeAndPark(c *Coro) {
	c.resumeRun()
	<-l.driver.resume
}

func (l *Loop) drainReady() {
	for l.ready.Length() > 0 {
		c := l.ready.Remove().(*Coro)
		// Frames dropped (or started through an await) while queued are
		// skipped; the queue only ever starts fresh frames.
		if c.state != stateCreated {
			continue
		}
		l.resumeAndPark(c)
	}
}

// run alternates the schedulers until no work remains: no startable
// frames, no registrations, no pending deadlines.
func (l *Loop) run() {
	for {
		l.drainReady()
		delay, hasTimer := l.runTimers()
		if l.ready.Length() > 0 {
			continue
		}
		if l.poller.registered() > 0 {
			ms := -1
			if hasTimer {
				ms = int((delay + time.Millisecond - 1) / time.Millisecond)
			}
			l.pollWait(ms)
			continue
		}
		if hasTimer {
			time.Sleep(delay)
			continue
		}
		return
	}
}

// pollWait blocks in the readiness scheduler and resumes every frame
// whose descriptor fired, in the order the kernel reported them. A
// failing wait indicates kernel-level inconsistency and is fatal.
func (l *Loop) pollWait(ms int) {
	evs, err := l.poller.ep.Wait(ms)
	if err != nil {
		panic(&SyscallError{Op: "epoll_wait", Err: err})
	}
	for _, ev := range evs {
		w := l.poller.waiters[int(ev.FD)]
		if w == nil || !w.active {
			// The waiter deregistered while an earlier frame in this
			// batch was running.
			continue
		}
		w.got = eventsFromBits(ev.Bits)
		l.resumeAndPark(w.co)
	}
}

// Run starts root, drives the loop until it is idle, and returns the
// root's result. The root's error (including a captured panic) is
// surfaced to the caller.
func Run[T any](l *Loop, root *Task[T]) (T, error) {
	l.ready.Add(root.co)
	l.run()
	return root.Result()
}

// Close destroys every live detached task in spawn order and releases
// the readiness scheduler. It must not be called while the loop runs.
func (l *Loop) Close() error {
	ids := make([]uint64, 0, len(l.spawned))
	for id := range l.spawned {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs *multierror.Error
	for _, id := range ids {
		if aw, ok := l.spawned[id]; ok {
			aw.dropFrom(l.driver)
		}
	}
	if err := l.poller.ep.Close(); err != nil {
		errs = multierror.Append(errs, NewSyscallError("close epoll", err))
	}
	return errs.ErrorOrNil()
}
