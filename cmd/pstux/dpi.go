// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pstux/internal/issue"
	"pstux/internal/state"
	"pstux/internal/wineenv"
)

var dpiCmd = &cobra.Command{
	Use:   "dpi <value>",
	Short: "Set the interface scaling",
	Long: fmt.Sprintf(`Write the interface scaling DPI into the prefix. Accepts %d to %d;
96 is 100%%, 144 is 150%%, 192 is 200%%. Takes effect on the next launch.`,
		wineenv.MinDPI, wineenv.MaxDPI),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dpi, err := strconv.Atoi(args[0])
		if err != nil {
			return renderFailure(issue.NewErrorContext().
				WithOperation("parse dpi value").
				WithSuggestion(fmt.Sprintf("Pass a whole number between %d and %d", wineenv.MinDPI, wineenv.MaxDPI)).
				Wrap(err).
				BuildError())
		}

		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		reg, err := a.registry()
		if err != nil {
			return renderFailure(err)
		}
		if err := reg.SetDPI(cmd.Context(), dpi); err != nil {
			return renderFailure(err)
		}

		if err := rememberSetting(a, func(snap *state.Snapshot) {
			snap.DPI = dpi
		}); err != nil {
			return renderFailure(err)
		}

		fmt.Println(SuccessStyle.Render(fmt.Sprintf("✓ interface scaling set to %d dpi", dpi)))
		return nil
	},
}
