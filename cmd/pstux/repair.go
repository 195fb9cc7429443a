// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pstux/internal/reset"
	"pstux/internal/task"
	"pstux/internal/tui"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Clear the application's caches inside the prefix",
	Long: `Delete the licensing and activation caches the installed application
keeps inside the prefix. The application itself is not removed; it
rebuilds the caches on next start. Run this when the application refuses
to start or complains about its license after an update.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		if a.cfg.UI.Interactive {
			ok, err := tui.Confirm("Delete the application's caches? The application itself stays installed.")
			if err != nil {
				return renderFailure(err)
			}
			if !ok {
				fmt.Println(SubtitleStyle.Render("repair aborted"))
				return nil
			}
		}

		ctrl := &reset.Controller{
			Env:   a.env,
			Procs: a.reaper(),
		}

		return runTask(cmd.Context(), nil, task.KindReset,
			func(ctx context.Context, em *task.Emitter) error {
				rep, err := ctrl.Repair(ctx, em)
				if err != nil {
					return err
				}
				if len(rep.RemovedPaths) == 0 {
					em.Info("no application caches found")
				}
				return nil
			})
	},
}
