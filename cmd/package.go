package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/changelog"
	"github.com/VoxDroid/tvrel/internal/config"
	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/ledger"
	"github.com/VoxDroid/tvrel/internal/pipeline"
	"github.com/VoxDroid/tvrel/internal/target"
	"github.com/VoxDroid/tvrel/internal/toolchain"
)

var packageCmd = &cobra.Command{
	Use:   "package <tag> [triple...]",
	Short: "Build and package artifacts locally without uploading",
	Long:  "Build, strip, archive and checksum artifacts for <tag> into the dist directory. With triples given, only those targets are packaged",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := args[0]
		if !target.ValidTag(tag) {
			return fmt.Errorf("not a release tag: %s (want MAJOR.MINOR.PATCH, optionally v-prefixed)", tag)
		}
		dry, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		targets, err := resolveTargets(strings.Join(args[1:], ","))
		if err != nil {
			return err
		}

		ctx := context.Background()
		run := executor.New(dry, verbose)

		// git reads are safe under dry-run, so the generator always gets a
		// real runner.
		gen := changelog.New(executor.New(false, verbose), cfg.SourceDir)
		doc, err := gen.Generate(ctx, tag)
		if err != nil {
			return fmt.Errorf("changelog generation failed: %w", err)
		}

		var repo *ledger.Repository
		var runID int64
		if !dry {
			dbConn, err := ledger.InitDB()
			if err != nil {
				return err
			}
			defer func() { _ = dbConn.Close() }()
			repo = ledger.NewRepository(dbConn)
			if runID, err = repo.StartRun(tag); err != nil {
				return err
			}
		}

		var output io.Writer = io.Discard
		if verbose || dry {
			output = cmd.OutOrStdout()
		}
		p := &pipeline.Pipeline{Runner: run, Ledger: repo, RunID: runID}
		results := p.Run(ctx, pipeline.Options{
			Tag:       tag,
			Bin:       cfg.Binary,
			SourceDir: cfg.SourceDir,
			DistDir:   cfg.DistDir,
			Targets:   targets,
			Overrides: toolchain.Overrides(cfg.Commands),
			Changelog: []byte(doc),

			DryRun:        dry,
			SkipToolCheck: dry,
			Output:        output,
		})

		return summarize(cmd.OutOrStdout(), repo, runID, results)
	},
}

func init() {
	rootCmd.AddCommand(packageCmd)
}
