// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pstux/internal/capability"
	"pstux/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been set up and installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		snap, err := state.Load(a.env.StatePath())
		if err != nil {
			return renderFailure(err)
		}

		fmt.Println(TitleStyle.Render("Environment " + a.env.Root))

		check := func(label string, ok bool, detail string) {
			mark := ErrorStyle.Render("✗")
			if ok {
				mark = SuccessStyle.Render("✓")
			}
			if detail != "" {
				fmt.Printf("%s %-14s %s\n", mark, label, SubtitleStyle.Render(detail))
			} else {
				fmt.Printf("%s %s\n", mark, label)
			}
		}

		check("prefix", a.env.Initialized(), a.env.Prefix())
		check("setup", snap.SetupDone, fmt.Sprintf("%d components", len(snap.Components)))
		check("installed", snap.InstalledExe != "", snap.InstalledExe)

		gpus := capability.DetectGPUs(cmd.Context(), a.inv)
		for _, gpu := range gpus {
			check("gpu", gpu.Vendor != capability.VendorUnknown, gpu.Name)
		}

		if snap.Profile != "" {
			fmt.Printf("  %-14s %s\n", "profile", snap.Profile)
			if prof, profErr := a.catalog.Get(snap.Profile); profErr == nil && prof.Notes != "" {
				fmt.Println("  " + SubtitleStyle.Render(prof.Notes))
			}
		}
		if snap.Renderer != "" {
			fmt.Printf("  %-14s %s\n", "renderer", snap.Renderer)
		}
		if snap.DPI != 0 {
			fmt.Printf("  %-14s %d\n", "dpi", snap.DPI)
		}
		if !snap.UpdatedAt.IsZero() {
			fmt.Printf("  %-14s %s\n", "updated", snap.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}

		return nil
	},
}
