// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"pstux/internal/setup"
	"pstux/internal/task"
)

var setupProfileFlag string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Prepare the wine environment for the selected release",
	Long: `Prepare the environment end to end: initialize the wine prefix,
install the runtime components the selected profile needs, and apply
the profile's registry tuning.

Setup is safe to re-run; an initialized prefix is kept and components
are reinstalled idempotently.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		prof, err := a.selectedProfile(setupProfileFlag)
		if err != nil {
			return renderFailure(err)
		}

		caps, environ := a.snapshot()
		pipeline := &setup.Pipeline{
			Env:              a.env,
			Caps:             caps,
			Environ:          environ,
			Profile:          prof,
			Inv:              a.inv,
			BootTimeout:      a.bootTimeout(),
			ComponentTimeout: a.componentTimeout(),
		}

		rp := a.reaper()
		return runTask(cmd.Context(), func(context.Context) { rp.Reap() }, task.KindSetup, pipeline.Run)
	},
}

func init() {
	setupCmd.Flags().StringVarP(&setupProfileFlag, "profile", "p", "", "application profile (default from config)")
}
