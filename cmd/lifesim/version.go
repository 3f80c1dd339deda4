package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/report"
)

const Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lifesim version %s (report format %s)\n", Version, report.Version)
	},
}
