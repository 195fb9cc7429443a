// SPDX-License-Identifier: MPL-2.0

package setup

import (
	"context"
	"errors"
	"testing"
	"time"

	"pstux/internal/capability"
	"pstux/internal/execx"
	"pstux/internal/issue"
	"pstux/internal/profile"
	"pstux/internal/state"
	"pstux/internal/task"
	"pstux/internal/wineenv"
)

func testPipeline(t *testing.T, fake *execx.FakeInvoker, prof *profile.Profile) *Pipeline {
	t.Helper()

	return &Pipeline{
		Env: wineenv.NewEnvironment(t.TempDir()),
		Caps: &capability.Capabilities{
			RuntimePath:    "/usr/bin/wine",
			RuntimePresent: true,
			Supports32Bit:  true,
		},
		Environ:          []string{"WINEPREFIX=/p"},
		Profile:          prof,
		Inv:              fake,
		BootTimeout:      2 * time.Minute,
		ComponentTimeout: 5 * time.Minute,
	}
}

// runToEnd executes the pipeline under a coordinator and returns the drained
// event stream plus the finished task.
func runToEnd(t *testing.T, p *Pipeline) ([]task.Event, *task.Task) {
	t.Helper()

	c := task.NewCoordinator(nil)
	tk, err := c.Start(context.Background(), task.KindSetup, p.Run)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var events []task.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-tk.Events():
			if !ok {
				return events, tk
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out draining events")
		}
	}
}

func progressValues(events []task.Event) []int {
	var out []int
	for _, ev := range events {
		if p, ok := ev.(task.ProgressEvent); ok {
			out = append(out, p.Percent)
		}
	}
	return out
}

func hasWarn(events []task.Event) bool {
	for _, ev := range events {
		if l, ok := ev.(task.LogEvent); ok && l.Level == "warn" {
			return true
		}
	}
	return false
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	t.Run("two components walk the full progress curve", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		p := testPipeline(t, fake, &profile.Profile{
			ID:         "cc2021",
			Components: []string{"vcrun2019", "corefonts"},
			Renderer:   "gl",
		})

		events, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}

		want := []int{5, 20, 55, 90, 95, 100}
		if got := progressValues(events); !equalInts(got, want) {
			t.Errorf("progress = %v, want %v", got, want)
		}

		var winetricks int
		for _, call := range fake.Calls() {
			if call.Spec.Argv[0] == "winetricks" {
				winetricks++
				if call.Spec.Argv[1] != "-q" {
					t.Errorf("winetricks argv = %v, want quiet mode", call.Spec.Argv)
				}
			}
		}
		if winetricks != 2 {
			t.Errorf("winetricks ran %d times, want 2", winetricks)
		}

		snap, err := state.Load(p.Env.StatePath())
		if err != nil {
			t.Fatal(err)
		}
		if !snap.SetupDone || snap.Profile != "cc2021" {
			t.Errorf("snapshot = %+v", snap)
		}
	})

	t.Run("no components jumps straight to ninety", func(t *testing.T) {
		t.Parallel()

		p := testPipeline(t, execx.NewFakeInvoker(), &profile.Profile{ID: "bare"})

		events, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}

		want := []int{5, 20, 90, 95, 100}
		if got := progressValues(events); !equalInts(got, want) {
			t.Errorf("progress = %v, want %v", got, want)
		}
	})

	t.Run("component timeout is tolerated with a warning", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		fake.Responses["winetricks"] = execx.Response{
			Result: &execx.Result{ExitCode: -1, TimedOut: true},
		}
		p := testPipeline(t, fake, &profile.Profile{
			ID:         "slow",
			Components: []string{"vcrun2019"},
		})

		events, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}
		if !hasWarn(events) {
			t.Error("expected a warning for the timed out component")
		}
	})

	t.Run("bootstrap nonzero exit is tolerated with a warning", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		fake.Responses["/usr/bin/wine"] = execx.Response{
			Result: &execx.Result{ExitCode: 1, ErrOutput: "wineboot: partial update"},
		}
		p := testPipeline(t, fake, &profile.Profile{
			ID:         "x",
			Components: []string{"vcrun2019"},
		})

		events, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}
		if !hasWarn(events) {
			t.Error("expected a warning for the failed bootstrap")
		}

		var winetricks int
		for _, call := range fake.Calls() {
			if call.Spec.Argv[0] == "winetricks" {
				winetricks++
			}
		}
		if winetricks != 1 {
			t.Errorf("winetricks ran %d times, want 1", winetricks)
		}
	})

	t.Run("bootstrap spawn failure aborts before components", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		fake.Responses["/usr/bin/wine"] = execx.Response{
			Err: &issue.NotFoundError{Resource: "/usr/bin/wine"},
		}
		p := testPipeline(t, fake, &profile.Profile{
			ID:         "x",
			Components: []string{"vcrun2019"},
		})

		_, tk := runToEnd(t, p)
		if tk.State() != task.StateFailed {
			t.Fatalf("state = %q, want failed", tk.State())
		}
		if !errors.Is(tk.Err(), issue.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", tk.Err())
		}

		for _, call := range fake.Calls() {
			if call.Spec.Argv[0] == "winetricks" {
				t.Error("components ran despite failed bootstrap")
			}
		}
	})

	t.Run("missing runtime fails preflight", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		p := testPipeline(t, fake, &profile.Profile{ID: "x"})
		p.Caps = &capability.Capabilities{}

		_, tk := runToEnd(t, p)
		if tk.State() != task.StateFailed {
			t.Fatalf("state = %q, want failed", tk.State())
		}
		if !errors.Is(tk.Err(), issue.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", tk.Err())
		}
		if fake.CallCount() != 0 {
			t.Errorf("%d external calls despite failed preflight", fake.CallCount())
		}
	})

	t.Run("profile tuning reaches the registry", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		p := testPipeline(t, fake, &profile.Profile{
			ID:           "tuned",
			DLLOverrides: map[string]string{"msxml6": "native"},
			Renderer:     "vulkan",
			DPI:          192,
		})

		_, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}

		var regWrites int
		for _, call := range fake.Calls() {
			if len(call.Spec.Argv) > 2 && call.Spec.Argv[1] == "reg" {
				regWrites++
			}
		}
		if regWrites != 3 {
			t.Errorf("registry writes = %d, want override + renderer + dpi", regWrites)
		}
	})

	t.Run("overrides are written in a stable order", func(t *testing.T) {
		t.Parallel()

		fake := execx.NewFakeInvoker()
		p := testPipeline(t, fake, &profile.Profile{
			ID: "tuned",
			DLLOverrides: map[string]string{
				"winemenubuilder.exe": "disabled",
				"atmlib":              "native",
				"msxml6":              "native",
			},
		})

		_, tk := runToEnd(t, p)
		if tk.State() != task.StateSucceeded {
			t.Fatalf("state = %q, err = %v", tk.State(), tk.Err())
		}

		var written []string
		for _, call := range fake.Calls() {
			argv := call.Spec.Argv
			if len(argv) > 5 && argv[1] == "reg" && argv[3] == `HKCU\Software\Wine\DllOverrides` {
				written = append(written, argv[5])
			}
		}
		want := []string{"atmlib", "msxml6", "winemenubuilder.exe"}
		if len(written) != len(want) {
			t.Fatalf("override writes = %v, want %v", written, want)
		}
		for i := range want {
			if written[i] != want[i] {
				t.Errorf("override writes = %v, want %v", written, want)
			}
		}
	})
}
