// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Force-stop runtime processes and clear stale locks",
	Long: `Kill every wine process belonging to the environment and remove
stale lock files and server sockets. Safe to run at any time; a clean
environment reaps to nothing.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		rep := a.reaper().Reap()

		if len(rep.Killed) == 0 && len(rep.Removed) == 0 {
			fmt.Println(SuccessStyle.Render("✓ nothing to reap"))
			return nil
		}

		for _, entry := range rep.Killed {
			fmt.Println("killed  " + entry)
		}
		for _, path := range rep.Removed {
			fmt.Println("removed " + path)
		}

		if residual := a.reaper().Residual(); len(residual) > 0 {
			fmt.Println(WarningStyle.Render(fmt.Sprintf("still running: %v, reap again in a moment", residual)))
		}

		return nil
	},
}
