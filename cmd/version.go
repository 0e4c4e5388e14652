package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tvrel version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
