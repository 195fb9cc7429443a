// SPDX-License-Identifier: MPL-2.0

// Package task runs long operations against an environment: one active task
// at a time, an ordered event stream per task, and cancellation that always
// leaves the environment reaped.
package task

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind names what a task does to the environment.
type Kind string

const (
	// KindSetup prepares the prefix and its components.
	KindSetup Kind = "setup"
	// KindInstall runs the application installer.
	KindInstall Kind = "install"
	// KindLaunch starts the installed application.
	KindLaunch Kind = "launch"
	// KindReset tears the environment down.
	KindReset Kind = "reset"
)

// IsValid checks if the Kind is one of the defined values.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindSetup, KindInstall, KindLaunch, KindReset:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: string(k)}}
	}
}

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// InvalidKindError is returned by Kind.IsValid for undefined values.
type InvalidKindError struct {
	Value string
}

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return "invalid task kind: " + e.Value
}

// State is the lifecycle phase of a task.
type State string

const (
	// StateRunning means the task goroutine is active.
	StateRunning State = "running"
	// StateSucceeded is terminal: the task finished without error.
	StateSucceeded State = "succeeded"
	// StateFailed is terminal: the task returned an error.
	StateFailed State = "failed"
	// StateCancelled is terminal: the task was cancelled. Cancellation wins
	// over any error the task body returned on the way out.
	StateCancelled State = "cancelled"
)

// IsValid checks if the State is one of the defined values.
func (s State) IsValid() (bool, []error) {
	switch s {
	case StateRunning, StateSucceeded, StateFailed, StateCancelled:
		return true, nil
	default:
		return false, []error{&InvalidStateError{Value: string(s)}}
	}
}

// String returns the string representation of the State.
func (s State) String() string { return string(s) }

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// InvalidStateError is returned by State.IsValid for undefined values.
type InvalidStateError struct {
	Value string
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return "invalid task state: " + e.Value
}

type (
	// Event is one entry in a task's ordered event stream. The stream always
	// ends with exactly one TerminalEvent, after which the channel closes.
	Event interface {
		isEvent()
	}

	// LogEvent carries one line of task output.
	LogEvent struct {
		// Level is "debug", "info", "warn", or "error".
		Level string
		// Message is the line itself.
		Message string
	}

	// ProgressEvent reports overall completion. Values are monotonic and
	// deduplicated: consumers never see the same percentage twice in a row
	// or a value lower than an earlier one.
	ProgressEvent struct {
		// Percent is in [0, 100].
		Percent int
		// Stage names what is currently happening.
		Stage string
	}

	// TerminalEvent closes the stream with the final state.
	TerminalEvent struct {
		// State is one of the terminal states.
		State State
		// Err is the failure cause, nil on success and usually
		// context.Canceled on cancellation.
		Err error
	}
)

func (LogEvent) isEvent()      {}
func (ProgressEvent) isEvent() {}
func (TerminalEvent) isEvent() {}

// eventBuffer is sized so a task never blocks on a consumer that reads in
// bursts. Setup emits well under a hundred events.
const eventBuffer = 256

// Task is one running or finished operation.
type Task struct {
	// ID is a unique, lexicographically sortable identifier.
	ID string

	// Kind names the operation.
	Kind Kind

	// StartedAt is when the task goroutine began.
	StartedAt time.Time

	mu     sync.Mutex
	state  State
	err    error
	events chan Event
	done   chan struct{}
	cancel func()
}

func newTask(kind Kind) *Task {
	return &Task{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Kind:      kind,
		StartedAt: time.Now(),
		state:     StateRunning,
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
	}
}

// Events returns the ordered event stream. The channel closes after the
// terminal event.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Done closes when the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current lifecycle phase.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the failure cause once terminal, nil before that and on
// success.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel requests cancellation. Safe to call repeatedly and after the task
// finished.
func (t *Task) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// finish moves the task to a terminal state. The first caller wins; later
// calls are ignored, which keeps the terminal event unique even when a
// cancellation races the task body's own return.
func (t *Task) finish(state State, err error) {
	t.mu.Lock()
	if t.state.Terminal() {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.err = err
	t.mu.Unlock()

	t.events <- TerminalEvent{State: state, Err: err}
	close(t.events)
	close(t.done)
}
