package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/changelog"
	"github.com/VoxDroid/tvrel/internal/config"
	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/target"
)

var changelogCmd = &cobra.Command{
	Use:   "changelog <tag>",
	Short: "Print the changelog body for a release tag",
	Long:  "Print the changelog that would be published for <tag>: the commit history between the previous release tag and <tag>, grouped by change type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := args[0]
		if !target.ValidTag(tag) {
			return fmt.Errorf("not a release tag: %s (want MAJOR.MINOR.PATCH, optionally v-prefixed)", tag)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		gen := changelog.New(executor.New(false, verbose), cfg.SourceDir)
		doc, err := gen.Generate(context.Background(), tag)
		if err != nil {
			return err
		}
		if full, _ := cmd.Flags().GetBool("full"); full {
			fmt.Fprint(cmd.OutOrStdout(), doc)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), changelog.StripHeader(doc))
		return nil
	},
}

func init() {
	changelogCmd.Flags().Bool("full", false, "print the full document including the changelog header")
	rootCmd.AddCommand(changelogCmd)
}
