package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/countdown/pkg/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit, and build time of countdownctl.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if output == "json" {
			return printJSON(cmd.OutOrStdout(), config.GetBuildInfo())
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), config.VersionString("countdownctl"))
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
