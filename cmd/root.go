package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tvrel",
	Short: "tvrel builds, packages and publishes tv releases",
	Long:  "tvrel orchestrates the tv release pipeline: changelog generation, release creation, the multi-target packaging matrix, checksums and asset upload",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("dry-run", false, "Print commands instead of executing them")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
}
