// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pstux/internal/state"
	"pstux/internal/wineenv"
)

var rendererCmd = &cobra.Command{
	Use:   "renderer <gl|vulkan|gdi>",
	Short: "Switch the Direct3D backend",
	Long: `Select how Direct3D calls are translated: gl is the safest, vulkan is
faster on capable drivers, gdi falls back to software rendering. Takes
effect on the next launch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		renderer := wineenv.Renderer(args[0])

		reg, err := a.registry()
		if err != nil {
			return renderFailure(err)
		}
		if err := reg.SetRenderer(cmd.Context(), renderer); err != nil {
			return renderFailure(err)
		}

		if err := rememberSetting(a, func(snap *state.Snapshot) {
			snap.Renderer = renderer.String()
		}); err != nil {
			return renderFailure(err)
		}

		fmt.Println(SuccessStyle.Render("✓ renderer set to " + renderer.String()))
		return nil
	},
}

// rememberSetting folds a mutation into the persisted snapshot. Registry
// writes land first; a snapshot that lags behind the prefix only costs a
// stale line in status output.
func rememberSetting(a *app, mutate func(*state.Snapshot)) error {
	snap, err := state.Load(a.env.StatePath())
	if err != nil {
		return err
	}
	mutate(snap)
	return state.Save(a.env.StatePath(), snap)
}
