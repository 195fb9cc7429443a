// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"pstux/internal/issue"
	"pstux/internal/task"
)

// newLogger builds the console logger used for task event streams.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// runTask starts a task on a fresh coordinator, renders its event stream,
// and converts the terminal state to an exit status. Cancellation arrives
// through ctx (fang wires SIGINT into it); the coordinator reaps before the
// task goes terminal.
func runTask(ctx context.Context, reap task.Reaper, kind task.Kind, fn task.RunFunc) error {
	logger := newLogger()

	c := task.NewCoordinator(reap)
	tk, err := c.Start(ctx, kind, fn)
	if err != nil {
		return renderFailure(err)
	}

	logger.Debug("task started", "id", tk.ID, "kind", tk.Kind)

	for ev := range tk.Events() {
		switch ev := ev.(type) {
		case task.LogEvent:
			switch ev.Level {
			case "debug":
				logger.Debug(ev.Message)
			case "warn":
				logger.Warn(ev.Message)
			case "error":
				logger.Error(ev.Message)
			default:
				logger.Info(ev.Message)
			}
		case task.ProgressEvent:
			logger.Info(fmt.Sprintf("%3d%%", ev.Percent), "stage", ev.Stage)
		case task.TerminalEvent:
			switch ev.State {
			case task.StateSucceeded:
				fmt.Println(SuccessStyle.Render("✓ " + kind.String() + " complete"))
			case task.StateCancelled:
				fmt.Println(WarningStyle.Render("✗ " + kind.String() + " cancelled, environment cleaned up"))
				return &ExitError{Code: 130}
			case task.StateFailed:
				return renderFailure(ev.Err)
			}
		}
	}

	return nil
}

// renderFailure prints the error with its suggestions and, when the failure
// class is documented, the rendered catalog page.
func renderFailure(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+ae.Format(verbose))
	} else {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
	}

	if id := issue.ForError(err); id != 0 {
		if entry := issue.Get(id); entry != nil {
			if rendered, renderErr := entry.Render("auto"); renderErr == nil {
				fmt.Fprintln(os.Stderr, rendered)
			}
		}
	}

	return &ExitError{Code: 1, Err: err}
}
