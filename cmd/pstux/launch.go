// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"pstux/internal/installer"
	"pstux/internal/task"
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start the installed application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		caps, environ := a.snapshot()
		runner := &installer.Runner{
			Env:     a.env,
			Caps:    caps,
			Environ: environ,
			Inv:     a.inv,
		}

		rp := a.reaper()
		return runTask(cmd.Context(), func(context.Context) { rp.Reap() }, task.KindLaunch, runner.Launch)
	},
}
