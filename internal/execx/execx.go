// SPDX-License-Identifier: MPL-2.0

// Package execx runs external processes with bounded lifetimes and captured
// output. All wine, wineboot, winetricks, and package manager calls go
// through the Invoker interface so higher layers can be tested without
// touching the host.
package execx

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"pstux/internal/issue"
)

type (
	// Spec describes a single external process invocation.
	Spec struct {
		// Argv is the command and its arguments. Must be non-empty.
		Argv []string

		// Env is the full environment for the process. When nil, the
		// parent environment is inherited.
		Env []string

		// Dir is the working directory. Empty means the parent's.
		Dir string

		// Timeout bounds the call. Zero means no bound beyond the caller's
		// context.
		Timeout time.Duration
	}

	// Result holds the observable outcome of an invocation.
	Result struct {
		// ExitCode is the process exit status. -1 when the process never
		// ran or was killed by a signal.
		ExitCode int

		// Output is captured stdout.
		Output string

		// ErrOutput is captured stderr, kept separate for hint scanning.
		ErrOutput string

		// TimedOut is true when the Timeout expired before exit.
		TimedOut bool
	}

	// Invoker runs external processes. Production code uses RealInvoker;
	// tests substitute a fake.
	Invoker interface {
		Run(ctx context.Context, spec Spec) (*Result, error)
	}

	// RealInvoker executes processes with os/exec.
	RealInvoker struct{}
)

// NewRealInvoker creates an Invoker backed by os/exec.
func NewRealInvoker() *RealInvoker {
	return &RealInvoker{}
}

// Run executes the spec and waits for it to finish. A nonzero exit is not an
// error at this layer: the Result carries the code and captured output, and
// callers decide what a failure means. Run itself errors only when the
// process could not be started at all or the spec is malformed.
func (ri *RealInvoker) Run(ctx context.Context, spec Spec) (*Result, error) {
	if len(spec.Argv) == 0 {
		return nil, issue.NewErrorContext().
			WithOperation("run external process").
			Wrap(errors.New("empty argv")).
			BuildError()
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := &Result{
		ExitCode:  0,
		Output:    stdout.String(),
		ErrOutput: stderr.String(),
		TimedOut:  runCtx.Err() == context.DeadlineExceeded,
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		case res.TimedOut:
			res.ExitCode = -1
		default:
			return nil, issue.NewErrorContext().
				WithOperation("start external process").
				WithResource(spec.Argv[0]).
				WithSuggestion("Check that the binary exists and is executable").
				Wrap(err).
				BuildError()
		}
	}

	return res, nil
}
