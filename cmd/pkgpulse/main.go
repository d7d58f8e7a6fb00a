// Package main provides the entry point for the pkgpulse CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkgpulse/cmd/pkgpulse/commands"
	"github.com/Sumatoshi-tech/pkgpulse/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pkgpulse",
		Short: "pkgpulse - download metrics collector for published artifacts",
		Long: `pkgpulse polls public registries for download metrics on configured
artifacts and aggregates them into a unified report.

Commands:
  collect   Fetch download metrics and render the aggregated report`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewCollectCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "pkgpulse %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
