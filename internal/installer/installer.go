// SPDX-License-Identifier: MPL-2.0

// Package installer runs the application's own setup program inside a
// prepared environment and finds what it left behind.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pstux/internal/capability"
	"pstux/internal/execx"
	"pstux/internal/issue"
	"pstux/internal/pe"
	"pstux/internal/state"
	"pstux/internal/task"
	"pstux/internal/wineenv"
)

// Runner executes installers and launches the installed application.
type Runner struct {
	// Env is the prepared environment.
	Env *wineenv.Environment

	// Caps is the capability snapshot taken at task start.
	Caps *capability.Capabilities

	// Environ is the composed invocation environment.
	Environ []string

	// Inv runs external processes.
	Inv execx.Invoker

	// InstallTimeout bounds the installer process, 0 means unbounded. GUI
	// installers wait on the user, so the default is unbounded.
	InstallTimeout time.Duration
}

// Install validates the artifact, runs it through the runtime, and records
// the discovered application executable, as a step list over the task
// engine. Every step aborts on failure: an installer that did not finish
// leaves nothing worth recording.
func (r *Runner) Install(ctx context.Context, em *task.Emitter, exePath string) error {
	return task.RunSteps(ctx, em, []task.Step{
		{
			Name: "validate",
			End:  5,
			Note: "installer validated",
			Run: func(_ context.Context, em *task.Emitter) error {
				return r.validate(em, exePath)
			},
		},
		{
			Name:    "installer",
			End:     90,
			Note:    "installer finished",
			Timeout: r.InstallTimeout,
			Run: func(ctx context.Context, em *task.Emitter) error {
				return r.runInstaller(ctx, em, exePath)
			},
		},
		{
			Name: "record",
			End:  100,
			Note: "complete",
			Run: func(_ context.Context, em *task.Emitter) error {
				return r.discover(em)
			},
		},
	})
}

// validate rejects the artifact before anything runs when its instruction
// width cannot work on this host; an unclassifiable artifact proceeds with a
// warning.
func (r *Runner) validate(em *task.Emitter, exePath string) error {
	if _, err := os.Stat(exePath); err != nil {
		return issue.NewErrorContext().
			WithOperation("run installer").
			WithResource(exePath).
			WithSuggestion("Check the installer path").
			Wrap(&issue.NotFoundError{Resource: "installer executable"}).
			BuildError()
	}

	bitness := pe.DetectFile(exePath)
	switch bitness {
	case pe.Bitness32:
		if !r.Caps.Supports32Bit {
			return issue.NewErrorContext().
				WithOperation("run installer").
				WithResource(exePath).
				WithSuggestion("Install a wine build with 32-bit support (wine, not wine64 alone)").
				WithSuggestion("Or use a 64-bit installer for this application").
				Wrap(&issue.IncompatibleArtifactError{Path: exePath, Bitness: bitness.String()}).
				BuildError()
		}
	case pe.BitnessUnknown:
		em.Warn("could not classify installer architecture, proceeding anyway")
	}

	return nil
}

func (r *Runner) runInstaller(ctx context.Context, em *task.Emitter, exePath string) error {
	em.Info("running installer " + filepath.Base(exePath))
	em.Progress(10, "installer running")

	res, err := r.Inv.Run(ctx, execx.Spec{
		Argv: []string{r.Caps.RuntimePath, exePath},
		Env:  r.Environ,
	})
	if err != nil {
		return err
	}

	if res.TimedOut {
		return &issue.TimeoutError{Operation: "installer", Budget: r.InstallTimeout}
	}
	if res.ExitCode != 0 {
		ec := issue.NewErrorContext().
			WithOperation("run installer").
			WithResource(exePath)
		for _, hint := range scanHints(res.ErrOutput + "\n" + res.Output) {
			ec.WithSuggestion(hint)
		}
		return ec.Wrap(&issue.ExternalFailureError{
			Operation:  "installer",
			ExitCode:   res.ExitCode,
			Diagnostic: res.ErrOutput,
		}).BuildError()
	}

	return nil
}

// discover records what the installer left behind. A clean exit with no
// executable found is only a warning: some installers stage a second phase.
func (r *Runner) discover(em *task.Emitter) error {
	installed, err := r.FindInstalled()
	if err != nil {
		em.Warn("installer exited cleanly but no application executable was found")
		return nil
	}

	em.Info("installed " + installed)
	return r.recordInstall(installed)
}

// Launch starts the installed application and waits for it to exit.
func (r *Runner) Launch(ctx context.Context, em *task.Emitter) error {
	exe, err := r.installedExe()
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("launch application").
			WithSuggestion("Run 'pstux install <setup.exe>' first").
			Wrap(err).
			BuildError()
	}

	em.Info("launching " + filepath.Base(exe))
	res, err := r.Inv.Run(ctx, execx.Spec{
		Argv: []string{r.Caps.RuntimePath, exe},
		Env:  r.Environ,
		Dir:  filepath.Dir(exe),
	})
	if err != nil {
		return err
	}

	if res.ExitCode != 0 {
		ec := issue.NewErrorContext().
			WithOperation("launch application").
			WithResource(exe)
		for _, hint := range scanHints(res.ErrOutput) {
			ec.WithSuggestion(hint)
		}
		return ec.Wrap(&issue.ExternalFailureError{
			Operation:  "application",
			ExitCode:   res.ExitCode,
			Diagnostic: res.ErrOutput,
		}).BuildError()
	}

	return nil
}

// installedExe prefers the recorded path and falls back to discovery, so a
// hand-deleted state file does not strand a working install.
func (r *Runner) installedExe() (string, error) {
	snap, err := state.Load(r.Env.StatePath())
	if err == nil && snap.InstalledExe != "" {
		if _, statErr := os.Stat(snap.InstalledExe); statErr == nil {
			return snap.InstalledExe, nil
		}
	}

	return r.FindInstalled()
}

// FindInstalled globs the prefix for the application executable, 64-bit
// program directory first.
func (r *Runner) FindInstalled() (string, error) {
	for _, pf := range r.Env.ProgramFilesDirs() {
		for _, pattern := range []string{
			filepath.Join(pf, "Adobe", "*", "Photoshop.exe"),
			filepath.Join(pf, "Adobe", "Photoshop.exe"),
		} {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			if len(matches) > 0 {
				return matches[0], nil
			}
		}
	}

	return "", &issue.NotFoundError{Resource: "installed application executable"}
}

func (r *Runner) recordInstall(exe string) error {
	snap, err := state.Load(r.Env.StatePath())
	if err != nil {
		return err
	}
	snap.InstalledExe = exe
	return state.Save(r.Env.StatePath(), snap)
}

// hintTable maps diagnostic substrings to actionable suggestions. Matching
// is case-insensitive over combined installer output.
var hintTable = []struct {
	needle string
	hint   string
}{
	{"bad exe format", "The installer architecture does not match the wine build. Check 32-bit support."},
	{"vcruntime", "A Visual C++ runtime is missing. Re-run 'pstux setup' to install components."},
	{"msvcp", "A Visual C++ runtime is missing. Re-run 'pstux setup' to install components."},
	{".net framework", "The installer needs the .NET framework. Add a dotnet component to the profile."},
	{"out of memory", "The installer ran out of memory. Close other applications and retry."},
	{"0x80072ee7", "The installer could not reach its servers. Check network access or use an offline installer."},
	{"wine: could not load", "A runtime library failed to load. The wine install may be incomplete."},
	{"vulkan", "Graphics acceleration failed. Switch backends with 'pstux renderer gl'."},
	{"dri3", "Graphics acceleration failed. Switch backends with 'pstux renderer gl'."},
}

func scanHints(output string) []string {
	lower := strings.ToLower(output)

	var hints []string
	seen := map[string]bool{}
	for _, entry := range hintTable {
		if strings.Contains(lower, entry.needle) && !seen[entry.hint] {
			seen[entry.hint] = true
			hints = append(hints, entry.hint)
		}
	}

	// Failing to load ntdll out of syswow64 means the prefix and the binary
	// disagree on architecture.
	if strings.Contains(lower, "syswow64") && strings.Contains(lower, "ntdll") {
		hints = append(hints, "The prefix and the binary disagree on architecture. Reset with 'pstux reset --full' and set up again.")
	}

	return hints
}

// Describe summarizes an artifact for status output without running it.
func Describe(exePath string) string {
	return fmt.Sprintf("%s (%s)", filepath.Base(exePath), pe.DetectFile(exePath))
}
