// File: coro/frame.go
//
// Coroutine frames and the control-handoff protocol.
//
// A frame is backed by a parked goroutine, but the runtime never lets two
// of them run at once: control is handed from frame to frame (or between
// a frame and the loop driver) through each frame's private resume
// channel. A handoff is the last shared-state access the sender performs
// before parking, so the structures owned by the loop need no locking.

package coro

type resumeMode uint8

const (
	modeRun resumeMode = iota
	modeCancel
)

type frameState uint8

const (
	stateCreated frameState = iota // frame exists, body not started
	stateRunning
	stateSuspended
	stateCompleted
	stateDropped
)

// unwindSignal is panicked inside a frame to destroy it at its current
// suspension point. Deferred cleanups run during the unwind, which is
// how pending timer and readiness registrations are released.
type unwindSignal struct{}

// IsUnwind reports whether a recovered value is the runtime's frame
// destruction signal. Task bodies that recover panics around suspension
// points MUST re-panic such values, or dropped frames stop unwinding.
func IsUnwind(v any) bool {
	_, ok := v.(unwindSignal)
	return ok
}

// Coro is the handle of the currently running frame. It is passed to
// every task body and threads the owning loop through all suspension
// points, much like a context does for cancellation.
type Coro struct {
	loop   *Loop
	resume chan resumeMode
	state  frameState

	// prev is the continuation: the frame to hand control to when this
	// one completes. At most one continuation may ever be set.
	prev *Coro

	// dropWaiter is the frame (or driver) that requested destruction and
	// is parked until the unwind finishes.
	dropWaiter *Coro

	body   func(*Coro)
	onDone []func()
}

func (l *Loop) newFrame(body func(*Coro)) *Coro {
	return &Coro{
		loop:   l,
		resume: make(chan resumeMode, 1),
		state:  stateCreated,
		body:   body,
	}
}

// Loop returns the loop that owns this frame.
func (c *Coro) Loop() *Loop { return c.loop }

// resumeRun hands control to c. A created frame starts its goroutine;
// a suspended one is woken through its resume channel.
func (c *Coro) resumeRun() {
	if c.state == stateCreated {
		c.state = stateRunning
		go c.body(c)
		return
	}
	c.resume <- modeRun
}

// park blocks the current frame until somebody hands control back.
// A cancel handoff starts the unwind instead of returning.
func (c *Coro) park() {
	c.state = stateSuspended
	mode := <-c.resume
	c.state = stateRunning
	if mode == modeCancel {
		panic(unwindSignal{})
	}
}

// suspend returns control to the loop driver and parks.
func (c *Coro) suspend() {
	c.loop.driver.resume <- modeRun
	c.park()
}

// transferTo resumes next in place of the current frame. The current
// frame parks; it is resumed later by next's completion (when it is the
// continuation) or by the scheduler.
func (c *Coro) transferTo(next *Coro) {
	next.resumeRun()
	c.park()
}

// dropFrom destroys the frame c from the context of d (a running frame,
// or the loop driver when called from outside the loop). A suspended
// frame unwinds synchronously: d is parked until c has run its deferred
// cleanups and released every registration it held. Idempotent.
func (c *Coro) dropFrom(d *Coro) {
	switch c.state {
	case stateCompleted, stateDropped:
		return
	case stateCreated:
		// No goroutine yet; nothing to unwind.
		c.state = stateDropped
		c.runDoneCallbacks()
		return
	case stateSuspended:
		c.dropWaiter = d
		c.resume <- modeCancel
		<-d.resume
	case stateRunning:
		panic("coro: cannot drop the running frame")
	}
}

func (c *Coro) runDoneCallbacks() {
	for _, f := range c.onDone {
		f()
	}
	c.onDone = nil
}
