// File: coro/combine.go
//
// Structured composition: WhenAll and WhenAny. Each input gets a small
// helper frame that awaits it and does the group bookkeeping; the
// decisive helper routes its final handoff straight to the parent, so
// the parent resumes without a scheduler round-trip.

package coro

import (
	"fmt"
	"time"
)

type allGroup struct {
	pending int
	err     error
	parent  *Coro
}

// WhenAll awaits every task and returns the first error, or nil when
// all succeed. Children start in argument order: the first one runs
// directly off the parent's suspension, the rest through the ready
// queue. A failing child does not interrupt the group; the remaining
// children are still awaited so cleanup stays deterministic, and their
// errors are discarded.
func WhenAll(co *Coro, aws ...Awaitable) error {
	if len(aws) == 0 {
		return nil
	}
	g := &allGroup{pending: len(aws), parent: co}
	helpers := make([]*Task[Void], len(aws))
	for i, aw := range aws {
		aw := aw
		helpers[i] = New(co.loop, func(hc *Coro) (Void, error) {
			err := aw.awaitErr(hc)
			if err != nil && g.err == nil {
				g.err = err
			}
			if g.pending--; g.pending == 0 {
				// Last one out resumes the parent.
				hc.prev = g.parent
			}
			return Void{}, nil
		})
	}
	defer dropGroup(co, helpers, aws)
	for _, h := range helpers[1:] {
		co.loop.ready.Add(h.co)
	}
	co.transferTo(helpers[0].co)
	return g.err
}

// WhenAll2 awaits two typed tasks and returns both values. The values
// are only meaningful when the error is nil.
func WhenAll2[A, B any](co *Coro, ta *Task[A], tb *Task[B]) (A, B, error) {
	err := WhenAll(co, ta, tb)
	a, _ := ta.Result()
	b, _ := tb.Result()
	return a, b, err
}

// WhenAll3 awaits three typed tasks.
func WhenAll3[A, B, C any](co *Coro, ta *Task[A], tb *Task[B], tc *Task[C]) (A, B, C, error) {
	err := WhenAll(co, ta, tb, tc)
	a, _ := ta.Result()
	b, _ := tb.Result()
	c, _ := tc.Result()
	return a, b, c, err
}

type anyGroup struct {
	settled bool
	index   int
	err     error
	parent  *Coro
}

// WhenAny awaits the tasks until the first one completes and returns
// its index and error. The winner's value stays available through its
// Result method. The losing siblings are destroyed before WhenAny
// returns: their frames unwind at their suspension points and release
// every timer or readiness registration they held.
func WhenAny(co *Coro, aws ...Awaitable) (int, error) {
	if len(aws) == 0 {
		return -1, fmt.Errorf("%w: WhenAny needs at least one task", ErrInvalidArgument)
	}
	g := &anyGroup{index: -1, parent: co}
	helpers := make([]*Task[Void], len(aws))
	for i, aw := range aws {
		i, aw := i, aw
		helpers[i] = New(co.loop, func(hc *Coro) (Void, error) {
			if g.settled {
				return Void{}, nil
			}
			err := aw.awaitErr(hc)
			if !g.settled {
				g.settled = true
				g.index = i
				g.err = err
				hc.prev = g.parent
			}
			return Void{}, nil
		})
	}
	defer dropGroup(co, helpers, aws)
	for _, h := range helpers[1:] {
		co.loop.ready.Add(h.co)
	}
	co.transferTo(helpers[0].co)
	return g.index, g.err
}

// WithTimeout races aw against a deadline. It reports timedOut=true
// when the deadline wins; the operation is then already destroyed and
// its registrations released.
func WithTimeout(co *Coro, d time.Duration, aw Awaitable) (timedOut bool, err error) {
	idx, err := WhenAny(co, aw, NewSleep(co.loop, d))
	if idx == 1 {
		return true, nil
	}
	return false, err
}

// dropGroup destroys every helper that has not reached a terminal
// state, then sweeps the inputs themselves. Destroying a helper
// cascades into the task it was awaiting; the sweep catches inputs
// whose helper never started. On the normal WhenAll path everything is
// already done and this is a no-op; for WhenAny it is what drops the
// losers, and on an unwinding parent it tears the whole group down.
func dropGroup(co *Coro, helpers []*Task[Void], aws []Awaitable) {
	for _, h := range helpers {
		if !h.Done() {
			h.co.dropFrom(co)
		}
	}
	for _, aw := range aws {
		if !aw.Done() {
			aw.dropFrom(co)
		}
	}
}
