// SPDX-License-Identifier: MPL-2.0

package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pstux/internal/issue"
)

// Policy decides what a step failure does to the rest of its list.
type Policy string

const (
	// PolicyAbort stops the list and fails the task. The zero value.
	PolicyAbort Policy = "abort"
	// PolicyTolerate downgrades expected external failures to warnings and
	// keeps going.
	PolicyTolerate Policy = "tolerate"
)

// IsValid checks if the Policy is one of the defined values.
func (p Policy) IsValid() (bool, []error) {
	switch p {
	case PolicyAbort, PolicyTolerate, "":
		return true, nil
	default:
		return false, []error{&InvalidPolicyError{Value: string(p)}}
	}
}

// String returns the string representation of the Policy.
func (p Policy) String() string { return string(p) }

// InvalidPolicyError is returned by Policy.IsValid for undefined values.
type InvalidPolicyError struct {
	Value string
}

// Error implements the error interface for InvalidPolicyError.
func (e *InvalidPolicyError) Error() string {
	return "invalid step policy: " + e.Value
}

// Step is one stage of a staged task body: an operation with a progress
// weight, a time budget, and a failure policy. Pipelines are ordered step
// lists executed by RunSteps, so every operation kind shares one engine
// instead of re-deriving lifecycle handling.
type Step struct {
	// Name labels the step in warnings.
	Name string

	// End is the progress percentage emitted once the step is done.
	End int

	// Note is the stage text attached to the End progress event.
	Note string

	// Timeout bounds Run through its context when positive. External
	// invocations inside Run observe it as an expired deadline.
	Timeout time.Duration

	// Policy decides whether a failure aborts the list.
	Policy Policy

	// Run does the work. Nil runs nothing and still emits End.
	Run func(ctx context.Context, em *Emitter) error
}

// RunSteps executes steps in order, emitting each step's End progress as it
// completes. A tolerated failure must be an expected external outcome, a
// timeout or a nonzero exit; anything else aborts regardless of policy, as
// does cancellation of the surrounding context.
func RunSteps(ctx context.Context, em *Emitter, steps []Step) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.Run != nil {
			if err := runStep(ctx, em, s); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if s.Policy != PolicyTolerate || !tolerable(err) {
					return err
				}
				em.Warn(fmt.Sprintf("%s: %v, continuing", s.Name, err))
			}
		}

		em.Progress(s.End, s.Note)
	}

	return nil
}

func runStep(ctx context.Context, em *Emitter, s Step) error {
	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	err := s.Run(runCtx, em)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = &issue.TimeoutError{Operation: s.Name, Budget: s.Timeout}
	}
	return err
}

func tolerable(err error) bool {
	return errors.Is(err, issue.ErrTimeout) || errors.Is(err, issue.ErrExternalFailure)
}
