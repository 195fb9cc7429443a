// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"time"

	"pstux/internal/issue"
)

// JoinTimeout bounds how long CancelAndJoin waits for the task body to
// acknowledge cancellation before giving up on the goroutine.
const JoinTimeout = 15 * time.Second

type (
	// RunFunc is a task body. It must honor ctx and report through em. The
	// returned error decides the terminal state unless the context was
	// cancelled, in which case cancellation wins.
	RunFunc func(ctx context.Context, em *Emitter) error

	// Reaper is the cleanup hook invoked unconditionally after a
	// cancellation, before the task goes terminal. It must not fail.
	Reaper func(ctx context.Context)

	// Coordinator serializes tasks on one environment. Starting a task
	// while another is running fails fast rather than queueing.
	Coordinator struct {
		reap Reaper

		mu     chan struct{} // 1-slot semaphore guarding active
		active *Task
	}
)

// NewCoordinator creates a Coordinator. The reaper may be nil when there is
// nothing to clean up on cancellation.
func NewCoordinator(reap Reaper) *Coordinator {
	c := &Coordinator{
		reap: reap,
		mu:   make(chan struct{}, 1),
	}
	c.mu <- struct{}{}
	return c
}

func (c *Coordinator) lock()   { <-c.mu }
func (c *Coordinator) unlock() { c.mu <- struct{}{} }

// Start launches a task of the given kind. Returns BusyError when another
// task is still running.
func (c *Coordinator) Start(ctx context.Context, kind Kind, fn RunFunc) (*Task, error) {
	if ok, errs := kind.IsValid(); !ok {
		return nil, errs[0]
	}

	c.lock()
	if c.active != nil && !c.active.State().Terminal() {
		activeKind := c.active.Kind
		c.unlock()
		return nil, &issue.BusyError{ActiveKind: activeKind.String()}
	}

	t := newTask(kind)
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	c.active = t
	c.unlock()

	go c.run(runCtx, t, fn)

	return t, nil
}

// Active returns the current task, terminal or not, nil before the first
// Start.
func (c *Coordinator) Active() *Task {
	c.lock()
	defer c.unlock()
	return c.active
}

// CancelAndJoin cancels the task and waits for it to go terminal, at most
// JoinTimeout. A task body that ignores its context past the deadline yields
// a TimeoutError; the environment has still been reaped by then.
func (c *Coordinator) CancelAndJoin(t *Task) error {
	t.Cancel()

	select {
	case <-t.Done():
		return nil
	case <-time.After(JoinTimeout):
		return &issue.TimeoutError{Operation: "join cancelled " + t.Kind.String() + " task", Budget: JoinTimeout}
	}
}

func (c *Coordinator) run(ctx context.Context, t *Task, fn RunFunc) {
	err := fn(ctx, t.emitter())

	if ctx.Err() != nil {
		// Cancellation wins over whatever the body returned. The reap is
		// unconditional so a half-finished external process never outlives
		// its task.
		if c.reap != nil {
			c.reap(context.WithoutCancel(ctx))
		}
		cause := err
		if cause == nil {
			cause = ctx.Err()
		}
		t.finish(StateCancelled, cause)
		return
	}

	if err != nil {
		t.finish(StateFailed, err)
		return
	}
	t.finish(StateSucceeded, nil)
}

// emitter hands the body its publishing handle. One emitter per task.
func (t *Task) emitter() *Emitter {
	return &Emitter{t: t}
}

// IsBusy reports whether err is the fast-fail returned when a task is
// already running.
func IsBusy(err error) bool {
	return errors.Is(err, issue.ErrBusy)
}
