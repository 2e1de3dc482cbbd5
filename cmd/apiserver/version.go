package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/bulkbuddy/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "bulkbuddy %s (commit %s, %s)\n", info.Version, info.Commit, info.GoVersion)
	},
}
