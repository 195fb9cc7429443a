// SPDX-License-Identifier: MPL-2.0

package execx

import (
	"context"
	"sync"
)

type (
	// Call records one invocation seen by a FakeInvoker.
	Call struct {
		Spec Spec
	}

	// Response is what a FakeInvoker hands back for a matched invocation.
	Response struct {
		Result *Result
		Err    error
	}

	// FakeInvoker records invocations and replays canned responses. The
	// zero value returns a successful empty Result for everything.
	FakeInvoker struct {
		mu    sync.Mutex
		calls []Call

		// Responses maps the first argv element to a canned response.
		Responses map[string]Response

		// OnRun, when set, is consulted before Responses and may inspect
		// the full spec.
		OnRun func(ctx context.Context, spec Spec) (*Result, error)
	}
)

// NewFakeInvoker creates an empty recording invoker.
func NewFakeInvoker() *FakeInvoker {
	return &FakeInvoker{Responses: map[string]Response{}}
}

// Run records the spec and replays the configured response.
func (fi *FakeInvoker) Run(ctx context.Context, spec Spec) (*Result, error) {
	fi.mu.Lock()
	fi.calls = append(fi.calls, Call{Spec: spec})
	fi.mu.Unlock()

	if fi.OnRun != nil {
		return fi.OnRun(ctx, spec)
	}

	if len(spec.Argv) > 0 {
		if resp, ok := fi.Responses[spec.Argv[0]]; ok {
			return resp.Result, resp.Err
		}
	}

	return &Result{ExitCode: 0}, nil
}

// Calls returns a copy of everything recorded so far.
func (fi *FakeInvoker) Calls() []Call {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	out := make([]Call, len(fi.calls))
	copy(out, fi.calls)
	return out
}

// CallCount returns how many invocations were recorded.
func (fi *FakeInvoker) CallCount() int {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	return len(fi.calls)
}
