// SPDX-License-Identifier: MPL-2.0

// Package setup prepares an environment end to end: prefix bootstrap,
// component installation, and prefix tuning, expressed as a weighted step
// list with a fixed progress shape.
package setup

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"pstux/internal/capability"
	"pstux/internal/execx"
	"pstux/internal/issue"
	"pstux/internal/profile"
	"pstux/internal/state"
	"pstux/internal/task"
	"pstux/internal/wineenv"
)

// Progress milestones. Component installs fill the span between
// progressBooted and progressComponents linearly.
const (
	progressPreflight  = 5
	progressBooted     = 20
	progressComponents = 90
	progressTuned      = 95
	progressDone       = 100
)

// Pipeline is one configured setup run.
type Pipeline struct {
	// Env is the environment being prepared.
	Env *wineenv.Environment

	// Caps is the capability snapshot taken at task start.
	Caps *capability.Capabilities

	// Environ is the composed invocation environment.
	Environ []string

	// Profile selects components and prefix tuning.
	Profile *profile.Profile

	// Inv runs external processes.
	Inv execx.Invoker

	// BootTimeout bounds prefix bootstrap. Both an expired and a failed
	// bootstrap are tolerated: wineboot often finishes its work and then
	// idles, or exits nonzero after the registry is already written.
	BootTimeout time.Duration

	// ComponentTimeout bounds each component install. Expiry and nonzero
	// exits are tolerated with a warning; a missing component rarely blocks
	// the application outright.
	ComponentTimeout time.Duration
}

// Run executes the pipeline. The emitted progress sequence is fixed: 5 after
// preflight, 20 after bootstrap, a linear climb to 90 across components, 95
// after tuning, 100 on success.
func (p *Pipeline) Run(ctx context.Context, em *task.Emitter) error {
	return task.RunSteps(ctx, em, p.steps())
}

// steps lays the pipeline out as one weighted step list. Tolerated stages
// carry PolicyTolerate; everything else aborts on failure.
func (p *Pipeline) steps() []task.Step {
	steps := []task.Step{
		{
			Name: "preflight",
			End:  progressPreflight,
			Note: "preparing",
			Run: func(_ context.Context, em *task.Emitter) error {
				return p.preflight(em)
			},
		},
		{
			Name:    "bootstrap",
			End:     progressBooted,
			Note:    "prefix ready",
			Timeout: p.BootTimeout,
			Policy:  task.PolicyTolerate,
			Run:     p.boot,
		},
	}

	steps = append(steps, p.componentSteps()...)

	return append(steps,
		task.Step{
			Name: "tuning",
			End:  progressTuned,
			Note: "prefix tuned",
			Run:  p.tune,
		},
		task.Step{
			Name: "persist",
			End:  progressDone,
			Note: "complete",
			Run: func(_ context.Context, em *task.Emitter) error {
				return p.persist(em)
			},
		},
	)
}

func (p *Pipeline) componentSteps() []task.Step {
	total := len(p.Profile.Components)
	if total == 0 {
		return []task.Step{{
			Name: "components",
			End:  progressComponents,
			Note: "no components to install",
		}}
	}

	steps := make([]task.Step, 0, total)
	for i, comp := range p.Profile.Components {
		steps = append(steps, task.Step{
			Name:    "component " + comp,
			End:     progressBooted + (progressComponents-progressBooted)*(i+1)/total,
			Note:    "installed " + comp,
			Timeout: p.ComponentTimeout,
			Policy:  task.PolicyTolerate,
			Run: func(ctx context.Context, em *task.Emitter) error {
				return p.installComponent(ctx, em, comp)
			},
		})
	}
	return steps
}

func (p *Pipeline) preflight(em *task.Emitter) error {
	if p.Caps == nil || !p.Caps.RuntimePresent {
		return issue.NewErrorContext().
			WithOperation("prepare environment").
			WithResource("wine binary").
			WithSuggestion("Install wine through your package manager, or run 'pstux deps'").
			Wrap(&issue.NotFoundError{Resource: "wine binary"}).
			BuildError()
	}

	em.Info("using runtime " + p.Caps.RuntimePath)
	return nil
}

// boot initializes the prefix. Timeouts and nonzero exits surface as
// tolerable outcomes for the step policy; only a fault in the invocation
// itself, or a prefix that cannot be created, fails the pipeline.
func (p *Pipeline) boot(ctx context.Context, em *task.Emitter) error {
	if err := os.MkdirAll(p.Env.Prefix(), 0o755); err != nil {
		return issue.WrapWithOperation(err, "create prefix directory")
	}

	if p.Env.Initialized() {
		em.Info("prefix already initialized, skipping bootstrap")
		return nil
	}

	em.Info("initializing prefix")
	res, err := p.Inv.Run(ctx, execx.Spec{
		Argv: []string{p.Caps.RuntimePath, "wineboot", "--init"},
		Env:  p.Environ,
	})
	if err != nil {
		return err
	}

	switch {
	case res.TimedOut:
		return &issue.TimeoutError{Operation: "prefix bootstrap", Budget: p.BootTimeout}
	case res.ExitCode != 0:
		return &issue.ExternalFailureError{
			Operation:  "prefix bootstrap",
			ExitCode:   res.ExitCode,
			Diagnostic: res.ErrOutput,
		}
	}

	return nil
}

func (p *Pipeline) installComponent(ctx context.Context, em *task.Emitter, comp string) error {
	em.Info("installing component " + comp)
	res, err := p.Inv.Run(ctx, execx.Spec{
		Argv: []string{"winetricks", "-q", comp},
		Env:  p.Environ,
	})
	if err != nil {
		return err
	}

	switch {
	case res.TimedOut:
		return &issue.TimeoutError{Operation: "install", Budget: p.ComponentTimeout}
	case res.ExitCode != 0:
		return &issue.ExternalFailureError{
			Operation:  "install",
			ExitCode:   res.ExitCode,
			Diagnostic: res.ErrOutput,
		}
	}

	return nil
}

// tune applies the profile's prefix tweaks. Failures here degrade the
// experience rather than break it, so they warn instead of aborting.
func (p *Pipeline) tune(ctx context.Context, em *task.Emitter) error {
	reg := wineenv.NewRegistry(p.Inv, p.Caps.RuntimePath, p.Environ)

	dlls := make([]string, 0, len(p.Profile.DLLOverrides))
	for dll := range p.Profile.DLLOverrides {
		dlls = append(dlls, dll)
	}
	sort.Strings(dlls)

	for _, dll := range dlls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := reg.SetDLLOverride(ctx, dll, p.Profile.DLLOverrides[dll]); err != nil {
			em.Warn(fmt.Sprintf("override for %s failed: %v", dll, err))
		}
	}

	if p.Profile.Renderer != "" {
		if err := reg.SetRenderer(ctx, wineenv.Renderer(p.Profile.Renderer)); err != nil {
			em.Warn(fmt.Sprintf("renderer selection failed: %v", err))
		}
	}

	if p.Profile.DPI != 0 {
		if err := reg.SetDPI(ctx, p.Profile.DPI); err != nil {
			em.Warn(fmt.Sprintf("scaling selection failed: %v", err))
		}
	}

	return ctx.Err()
}

func (p *Pipeline) persist(em *task.Emitter) error {
	snap, err := state.Load(p.Env.StatePath())
	if err != nil {
		return err
	}

	snap.SetupDone = true
	snap.Components = p.Profile.Components
	snap.Profile = p.Profile.ID
	snap.Renderer = p.Profile.Renderer
	snap.DPI = p.Profile.DPI

	if err := state.Save(p.Env.StatePath(), snap); err != nil {
		return err
	}

	em.Info("environment state recorded")
	return nil
}
