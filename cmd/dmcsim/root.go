package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "dmcsim",
	Short: "DMCSim simulates a direct-mapped write-back cache controller " +
		"with cycle-level timing.",
	Long: `DMCSim simulates a direct-mapped write-back cache controller ` +
		`with cycle-level timing. The cache is backed by a fixed-latency ` +
		`memory controller and driven by random read and write traffic.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
