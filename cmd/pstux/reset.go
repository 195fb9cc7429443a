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

var resetFullFlag bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Tear the environment down",
	Long: `Stop every runtime process and clear the component download cache.
The wine prefix and the installed application stay in place. With --full
the entire managed directory is removed, application included.

Destructive modes ask twice unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		mode := reset.ModeCleanup
		if resetFullFlag {
			mode = reset.ModeFull
		}

		if a.cfg.UI.Interactive {
			ok, err := confirmReset(a.env.Root, mode)
			if err != nil {
				return renderFailure(err)
			}
			if !ok {
				fmt.Println(SubtitleStyle.Render("reset aborted"))
				return nil
			}
		}

		ctrl := &reset.Controller{
			Env:      a.env,
			Procs:    a.reaper(),
			CacheDir: a.cacheDir(),
		}

		return runTask(cmd.Context(), func(context.Context) { ctrl.Procs.Reap() }, task.KindReset,
			func(ctx context.Context, em *task.Emitter) error {
				rep, err := ctrl.Reset(ctx, em, mode)
				if err != nil {
					return err
				}
				if pc := rep.PartialCleanup(); pc != nil {
					em.Warn(pc.Error())
				}
				return nil
			})
	},
}

// confirmReset walks the two-step confirmation. The second question only
// appears for the full mode, where the installed application goes too.
func confirmReset(root string, mode reset.Mode) (bool, error) {
	ok, err := tui.Confirm(fmt.Sprintf("Stop runtime processes and clear caches for %s?", root))
	if err != nil || !ok {
		return false, err
	}

	if mode != reset.ModeFull {
		return true, nil
	}

	return tui.Confirm("Also delete " + root + " entirely, including the installed application?")
}

func init() {
	resetCmd.Flags().BoolVar(&resetFullFlag, "full", false, "remove the entire managed directory")
}
