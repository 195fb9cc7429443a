// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pstux/internal/capability"
	"pstux/internal/issue"
)

var probeRecommendFlag bool

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Inspect the host: runtime, distribution, graphics",
	Long: `Probe the host for everything pstux depends on: the wine binaries,
32-bit support, the distribution family, and with --recommend the
graphics adapter and its driver situation.

Probes are snapshots; install wine and probe again to see it appear.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return renderFailure(err)
		}

		caps := a.prober.Snapshot()

		printField := func(label, value string, good bool) {
			style := SuccessStyle
			if !good {
				style = WarningStyle
			}
			fmt.Printf("%-18s %s\n", label, style.Render(value))
		}

		fmt.Println(TitleStyle.Render("Host capabilities"))
		if caps.RuntimePresent {
			printField("runtime", caps.RuntimePath, true)
			if caps.ServerPath != "" {
				printField("server", caps.ServerPath, true)
			} else {
				printField("server", "not found", false)
			}
			printField("32-bit support", fmt.Sprintf("%v", caps.Supports32Bit), caps.Supports32Bit)
		} else {
			printField("runtime", "not found", false)
		}
		printField("distro family", caps.Family.String(), caps.Family != capability.FamilyUnknown)

		if bundle := a.prober.BundleDir(); bundle != "" {
			printField("bundle", bundle, true)
		}

		if !probeRecommendFlag {
			return nil
		}

		fmt.Println()
		fmt.Println(TitleStyle.Render("Graphics"))
		gpus := capability.DetectGPUs(cmd.Context(), a.inv)
		for _, gpu := range gpus {
			printField("adapter", gpu.Name, gpu.Vendor != capability.VendorUnknown)
		}
		if len(gpus) == 0 {
			printField("adapter", "none detected", false)
		}

		vendor := capability.PrimaryVendor(gpus)
		for _, rec := range capability.Recommendations(vendor, caps.Family) {
			fmt.Println("  • " + rec)
		}

		if vendor == capability.VendorUnknown {
			if entry := issue.Get(issue.NoDisplayAdapterId); entry != nil {
				if rendered, err := entry.Render("auto"); err == nil {
					fmt.Println(rendered)
				}
			}
		}

		return nil
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeRecommendFlag, "recommend", false, "include graphics adapter advice")
}
