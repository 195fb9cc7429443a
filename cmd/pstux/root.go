// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pstux.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"pstux/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// assumeYes skips confirmation prompts
	assumeYes bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pstux",
		Short: "Run Photoshop on Linux through a managed wine environment",
		Long: TitleStyle.Render("pstux") + SubtitleStyle.Render(" - Photoshop on Linux, managed end to end") + `

pstux prepares a dedicated wine environment, installs the runtime
components a Photoshop release needs, runs its installer, and keeps
the environment healthy afterwards.

Everything lives under ~/.pstux and can be removed with one command.

` + SubtitleStyle.Render("Quick Start:") + `
  1. pstux deps           Show how to install wine for your distro
  2. pstux setup          Prepare the environment
  3. pstux install <exe>  Run the Photoshop installer
  4. pstux launch         Start Photoshop

` + SubtitleStyle.Render("Examples:") + `
  pstux setup --profile cc2021   Prepare for the 2021 release
  pstux probe --recommend        Inspect the host and GPU
  pstux reset --full             Delete everything pstux created`,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pstux/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "answer yes to confirmation prompts")

	// Add subcommands
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(reapCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(fixesCmd)
	rootCmd.AddCommand(rendererCmd)
	rootCmd.AddCommand(dpiCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// loadConfig resolves the tool configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.UI.Verbose = true
	}
	if assumeYes {
		cfg.UI.Interactive = false
	}
	return cfg, nil
}
