// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var fixesProfileFlag string

var fixesCmd = &cobra.Command{
	Use:   "fixes",
	Short: "Re-apply the profile's library overrides",
	Long: `Write the selected profile's DLL overrides into the prefix registry.
Setup applies these automatically; run fixes after the application's own
updater or a registry cleaner has undone them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		prof, err := a.selectedProfile(fixesProfileFlag)
		if err != nil {
			return renderFailure(err)
		}

		if len(prof.DLLOverrides) == 0 {
			fmt.Println(SubtitleStyle.Render("profile " + prof.ID + " declares no overrides"))
			return nil
		}

		reg, err := a.registry()
		if err != nil {
			return renderFailure(err)
		}

		dlls := make([]string, 0, len(prof.DLLOverrides))
		for dll := range prof.DLLOverrides {
			dlls = append(dlls, dll)
		}
		sort.Strings(dlls)

		for _, dll := range dlls {
			mode := prof.DLLOverrides[dll]
			if err := reg.SetDLLOverride(cmd.Context(), dll, mode); err != nil {
				return renderFailure(err)
			}
			fmt.Printf("%s %s = %s\n", SuccessStyle.Render("✓"), dll, mode)
		}

		fmt.Println(SuccessStyle.Render(fmt.Sprintf("✓ %d overrides applied from %s", len(dlls), prof.ID)))
		return nil
	},
}

func init() {
	fixesCmd.Flags().StringVarP(&fixesProfileFlag, "profile", "p", "", "profile whose overrides to apply")
}
