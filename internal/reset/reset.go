// SPDX-License-Identifier: MPL-2.0

// Package reset tears an environment down. The cleanup mode stops runtime
// processes and clears the component download cache, keeping the prefix in
// place; the full mode removes the entire managed root. Repair is the third
// surface: it drops the installed application's own caches inside the prefix
// without touching the application.
package reset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pstux/internal/issue"
	"pstux/internal/reaper"
	"pstux/internal/task"
	"pstux/internal/wineenv"
)

// Mode selects how much a reset removes.
type Mode string

const (
	// ModeCleanup stops processes and clears the download cache. The prefix
	// and everything under the root stay in place.
	ModeCleanup Mode = "cleanup"
	// ModeFull removes the entire managed root.
	ModeFull Mode = "full"
)

// IsValid checks if the Mode is one of the defined values.
func (m Mode) IsValid() (bool, []error) {
	switch m {
	case ModeCleanup, ModeFull:
		return true, nil
	default:
		return false, []error{&InvalidModeError{Value: string(m)}}
	}
}

// String returns the string representation of the Mode.
func (m Mode) String() string { return string(m) }

// InvalidModeError is returned by Mode.IsValid for undefined values.
type InvalidModeError struct {
	Value string
}

// Error implements the error interface for InvalidModeError.
func (e *InvalidModeError) Error() string {
	return "invalid reset mode: " + e.Value + " (expected cleanup or full)"
}

type (
	// Processes is the reaping surface a reset needs.
	Processes interface {
		Reap() *reaper.Report
		Residual() []string
	}

	// Controller performs resets.
	Controller struct {
		// Env is the environment being torn down.
		Env *wineenv.Environment

		// Procs reaps before anything is deleted so no process holds the
		// files being removed.
		Procs Processes

		// CacheDir is the component download cache, ~/.cache/winetricks on
		// a real host. Empty skips the cache sweep.
		CacheDir string
	}

	// Report lists what a reset did.
	Report struct {
		// Reaped is the process cleanup that preceded deletion.
		Reaped *reaper.Report

		// RemovedPaths are the directories actually deleted.
		RemovedPaths []string

		// Residual is non-empty when core runtime processes survived the
		// reap. The reset still completed; the caller should warn and
		// suggest retrying.
		Residual []string
	}
)

// Reset tears the environment down in the given mode, as a step list over
// the task engine: reap, remove, then verify nothing survived. Resetting an
// environment that never existed succeeds with an empty report. Surviving
// processes are reported, not fatal: the deletion already happened and a
// retry only needs the reap.
func (c *Controller) Reset(ctx context.Context, em *task.Emitter, mode Mode) (*Report, error) {
	if ok, errs := mode.IsValid(); !ok {
		return nil, errs[0]
	}

	rep := &Report{}
	err := task.RunSteps(ctx, em, []task.Step{
		{
			Name: "reap",
			End:  30,
			Note: "processes stopped",
			Run: func(_ context.Context, em *task.Emitter) error {
				em.Info("stopping runtime processes")
				rep.Reaped = c.Procs.Reap()
				return nil
			},
		},
		{
			Name: "remove",
			End:  90,
			Note: "artifacts removed",
			Run: func(ctx context.Context, em *task.Emitter) error {
				return c.remove(ctx, em, mode, rep)
			},
		},
		{
			Name: "verify",
			End:  100,
			Note: "complete",
			Run: func(_ context.Context, em *task.Emitter) error {
				rep.Residual = c.Procs.Residual()
				if len(rep.Residual) > 0 {
					em.Warn(fmt.Sprintf("%v survived the reap, run 'pstux reap' and retry if problems persist",
						rep.Residual))
				}
				return nil
			},
		},
	})

	return rep, err
}

// remove deletes this mode's targets. Cleanup only touches the download
// cache; full removes the root as well. Absent targets are skipped, a target
// that resists deletion fails the reset with what was removed so far on the
// report.
func (c *Controller) remove(ctx context.Context, em *task.Emitter, mode Mode, rep *Report) error {
	var targets []string
	if mode == ModeFull {
		targets = append(targets, c.Env.Root)
	}
	if c.CacheDir != "" {
		targets = append(targets, c.CacheDir)
	}

	for _, target := range targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := os.Stat(target); err != nil {
			continue
		}
		em.Info("removing " + target)
		if err := os.RemoveAll(target); err != nil {
			return issue.NewErrorContext().
				WithOperation("remove " + filepath.Base(target)).
				WithResource(target).
				WithSuggestion("Check permissions and that no process holds files there").
				Wrap(err).
				BuildError()
		}
		rep.RemovedPaths = append(rep.RemovedPaths, target)
	}

	return nil
}

// appCacheGlobs locate the application's licensing and activation caches
// inside the prefix, relative to drive_c. The wildcard covers the per-user
// directory whose name depends on who ran setup.
var appCacheGlobs = []string{
	"users/*/AppData/Local/Adobe/OOBE",
	"Program Files (x86)/Common Files/Adobe/SLCache",
	"ProgramData/Adobe/SLStore",
}

// Repair deletes the application's own caches inside the prefix. The
// application binaries stay in place and the caches are rebuilt on next
// start. Repairing an environment without a prefix succeeds with an empty
// report.
func (c *Controller) Repair(ctx context.Context, em *task.Emitter) (*Report, error) {
	rep := &Report{}
	err := task.RunSteps(ctx, em, []task.Step{
		{
			Name: "repair",
			End:  90,
			Note: "application caches cleared",
			Run: func(ctx context.Context, em *task.Emitter) error {
				return c.repair(ctx, em, rep)
			},
		},
		{
			Name: "verify",
			End:  100,
			Note: "complete",
		},
	})
	return rep, err
}

func (c *Controller) repair(ctx context.Context, em *task.Emitter, rep *Report) error {
	driveC := filepath.Join(c.Env.Prefix(), "drive_c")
	if _, err := os.Stat(driveC); err != nil {
		em.Info("no prefix to repair")
		return nil
	}

	for _, pattern := range appCacheGlobs {
		matches, _ := filepath.Glob(filepath.Join(driveC, pattern))
		for _, target := range matches {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			em.Info("removing " + target)
			if err := os.RemoveAll(target); err != nil {
				return issue.NewErrorContext().
					WithOperation("remove " + filepath.Base(target)).
					WithResource(target).
					WithSuggestion("Close the application and retry").
					Wrap(err).
					BuildError()
			}
			rep.RemovedPaths = append(rep.RemovedPaths, target)
		}
	}

	return nil
}

// PartialCleanup converts a report's residue into the warning-grade error
// callers log. Nil when the reap was complete.
func (r *Report) PartialCleanup() error {
	if len(r.Residual) == 0 {
		return nil
	}
	return &issue.PartialCleanupError{Remaining: r.Residual}
}
