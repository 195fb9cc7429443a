// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pstux/internal/sysdeps"
)

var depsApplyFlag bool

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show or install the host packages the runtime needs",
	Long: `Print the package installation commands for this distribution. With
--apply the commands run directly; they use sudo, so expect a password
prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		family := a.prober.Snapshot().Family

		script, err := sysdeps.Script(family)
		if err != nil {
			return renderFailure(err)
		}

		if !depsApplyFlag {
			fmt.Println(TitleStyle.Render("Packages for the " + family.String() + " family"))
			fmt.Println(CmdStyle.Render(script))
			fmt.Println(SubtitleStyle.Render("Run with: pstux deps --apply"))
			return nil
		}

		if err := sysdeps.Install(cmd.Context(), family, os.Stdout, os.Stderr); err != nil {
			return renderFailure(err)
		}

		fmt.Println(SuccessStyle.Render("✓ system dependencies installed"))
		return nil
	},
}

func init() {
	depsCmd.Flags().BoolVar(&depsApplyFlag, "apply", false, "run the installation commands")
}
