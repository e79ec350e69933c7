// Package coro implements a single-threaded asynchronous runtime built
// around cooperative, suspendable tasks.
//
// Key components:
//
//   - Task: the unit of suspendable work. A task produces a value or an
//     error, can be awaited by exactly one other task, and is destroyed
//     deterministically when dropped.
//
//   - Loop: the event loop driving everything. It alternates between a
//     deadline-ordered timer scheduler and an epoll-backed readiness
//     scheduler, sleeping when only timers remain and stopping when idle.
//
//   - Composition primitives: WhenAll and WhenAny combine tasks into
//     structured groups; Sleep and WaitEvent are the two suspension
//     points everything else is built from.
//
// The runtime is strictly single-threaded: exactly one frame (or the
// loop driver) runs at any instant, and control moves between frames by
// direct handoff; the loop's FIFO ready queue is used only to start
// freshly created frames (spawned tasks and group helpers). No locks or
// atomics guard the internal data structures; they are only ever touched
// by the frame that currently holds control.
package coro
