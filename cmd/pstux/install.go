// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"pstux/internal/installer"
	"pstux/internal/task"
)

var installCmd = &cobra.Command{
	Use:   "install <setup.exe>",
	Short: "Run the application installer inside the environment",
	Long: `Run the application's own setup program through the wine runtime.

The installer is validated first: a 32-bit executable is rejected when
the wine build cannot run it. After a clean exit the installed
application is located and recorded for 'pstux launch'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		exePath, err := filepath.Abs(args[0])
		if err != nil {
			return renderFailure(err)
		}

		caps, environ := a.snapshot()
		runner := &installer.Runner{
			Env:            a.env,
			Caps:           caps,
			Environ:        environ,
			Inv:            a.inv,
			InstallTimeout: a.installTimeout(),
		}

		rp := a.reaper()
		return runTask(cmd.Context(), func(context.Context) { rp.Reap() }, task.KindInstall,
			func(ctx context.Context, em *task.Emitter) error {
				return runner.Install(ctx, em, exePath)
			})
	},
}
