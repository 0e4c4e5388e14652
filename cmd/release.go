package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/changelog"
	"github.com/VoxDroid/tvrel/internal/config"
	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/forge"
	"github.com/VoxDroid/tvrel/internal/ledger"
	"github.com/VoxDroid/tvrel/internal/pipeline"
	"github.com/VoxDroid/tvrel/internal/target"
	"github.com/VoxDroid/tvrel/internal/toolchain"
	"github.com/VoxDroid/tvrel/internal/utils"
)

var releaseCmd = &cobra.Command{
	Use:   "release <tag>",
	Short: "Run the full release pipeline for a tag",
	Long: "Run the full release pipeline: generate the changelog for <tag>, " +
		"publish the release, then build, strip, package, checksum and upload " +
		"artifacts for every target in the matrix",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := args[0]
		if !target.ValidTag(tag) {
			return fmt.Errorf("not a release tag: %s (want MAJOR.MINOR.PATCH, optionally v-prefixed)", tag)
		}
		dry, _ := cmd.Flags().GetBool("dry-run")
		verbose, _ := cmd.Flags().GetBool("verbose")
		draft, _ := cmd.Flags().GetBool("draft")
		prerelease, _ := cmd.Flags().GetBool("prerelease")
		skipUpload, _ := cmd.Flags().GetBool("skip-upload")
		triples, _ := cmd.Flags().GetString("targets")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		targets, err := resolveTargets(triples)
		if err != nil {
			return err
		}

		if confirmFlag, _ := cmd.Flags().GetBool("confirm"); confirmFlag {
			if !utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Publish release %s now?", tag)) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}

		ctx := context.Background()
		run := executor.New(dry, verbose)

		// Stage 1: changelog, then the release record. A changelog failure
		// aborts before anything is published, so packaging never runs
		// against a half-created release. The generator always gets a real
		// runner: its git invocations only read the repository, and a dry
		// runner would hand it empty tag output.
		gen := changelog.New(executor.New(false, verbose), cfg.SourceDir)
		doc, err := gen.Generate(ctx, tag)
		if err != nil {
			return fmt.Errorf("changelog generation failed, aborting release: %w", err)
		}

		var fg forge.Forge
		var releaseID int64
		if !skipUpload && !dry {
			if cfg.Owner == "" || cfg.Repo == "" {
				return fmt.Errorf("owner and repo must be configured to publish a release")
			}
			token, err := cfg.Token()
			if err != nil {
				return err
			}
			gh := forge.NewGitHub(ctx, cfg.Owner, cfg.Repo, token)
			gh.ResolveAttempts = cfg.ResolveAttempts
			releaseID, err = gh.CreateRelease(ctx, tag, target.Version(tag), changelog.StripHeader(doc), draft, prerelease)
			if err != nil {
				return err
			}
			fg = gh
		}

		// Dry runs never touch the ledger: no release was published and no
		// artifact was produced, so there is nothing worth a run row.
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

		// Stage 2: the packaging matrix, uploads included. The release
		// already exists at this point, so every upload references it.
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
			Forge:     fg,
			ReleaseID: releaseID,

			DryRun:        dry,
			SkipToolCheck: dry,
			Output:        output,
		})

		return summarize(cmd.OutOrStdout(), repo, runID, results)
	},
}

// summarize prints the per-target outcome, closes the ledger run (dry runs
// pass a nil repo), and returns an error when any target failed so partial
// releases exit non-zero.
func summarize(w io.Writer, repo *ledger.Repository, runID int64, results []pipeline.Result) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL\t%s\t%v\n", r.Target.Triple, r.Err)
			continue
		}
		fmt.Fprintf(w, "ok\t%s\n", r.Target.Triple)
	}

	status := ledger.StatusOK
	switch {
	case failed == len(results):
		status = ledger.StatusFailed
	case failed > 0:
		status = ledger.StatusPartial
	}
	if repo != nil {
		if err := repo.FinishRun(runID, status); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed; re-run to fill in the missing artifacts", failed, len(results))
	}
	return nil
}

func init() {
	releaseCmd.Flags().Bool("confirm", false, "Ask for confirmation before publishing")
	releaseCmd.Flags().Bool("draft", false, "Create the release as a draft")
	releaseCmd.Flags().Bool("prerelease", false, "Mark the release as a prerelease")
	releaseCmd.Flags().Bool("skip-upload", false, "Package only; do not create a release or upload assets")
	releaseCmd.Flags().String("targets", "", "Comma-separated target triples (default: full matrix)")
	rootCmd.AddCommand(releaseCmd)
}
