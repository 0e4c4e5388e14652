package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/tvrel/internal/config"
	"github.com/VoxDroid/tvrel/internal/forge"
	"github.com/VoxDroid/tvrel/internal/target"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <tag>",
	Short: "Attach packaged artifacts to an existing release",
	Long: "Attach every artifact in the dist directory matching the release " +
		"naming scheme to the release for <tag>. Already-attached assets are " +
		"skipped, so re-running after a partial failure only fills the gaps",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := args[0]
		if !target.ValidTag(tag) {
			return fmt.Errorf("not a release tag: %s (want MAJOR.MINOR.PATCH, optionally v-prefixed)", tag)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Owner == "" || cfg.Repo == "" {
			return fmt.Errorf("owner and repo must be configured to upload assets")
		}
		token, err := cfg.Token()
		if err != nil {
			return err
		}

		triples, _ := cmd.Flags().GetString("targets")
		artifacts, err := uploadSet(cfg.DistDir, cfg.Binary, tag, triples)
		if err != nil {
			return err
		}
		if len(artifacts) == 0 {
			return fmt.Errorf("no artifacts for %s in %s; run 'tvrel package %s' first", cfg.Binary, cfg.DistDir, tag)
		}

		ctx := context.Background()
		gh := forge.NewGitHub(ctx, cfg.Owner, cfg.Repo, token)
		gh.ResolveAttempts = cfg.ResolveAttempts
		gh.ResolveDelay = time.Duration(cfg.ResolveDelaySec) * time.Second

		releaseID, err := gh.ResolveRelease(ctx, tag)
		if err != nil {
			return err
		}
		for _, a := range artifacts {
			if err := gh.UploadAsset(ctx, releaseID, a); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d artifacts attached to %s\n", len(artifacts), tag)
		return nil
	},
}

// uploadSet selects the dist-dir files to attach: everything matching the
// naming scheme, or exactly the named targets' archive + checksum pairs when
// triples is non-empty. A named target with missing files is an error, so a
// typo never silently uploads nothing.
func uploadSet(distDir, bin, tag, triples string) ([]string, error) {
	if triples == "" {
		return forge.MatchArtifacts(distDir, bin)
	}
	targets, err := resolveTargets(triples)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range targets {
		for _, a := range forge.ArtifactsFor(distDir, bin, tag, t) {
			if _, err := os.Stat(a); err != nil {
				return nil, fmt.Errorf("missing artifact %s; run 'tvrel package %s %s' first", filepath.Base(a), tag, t.Triple)
			}
			out = append(out, a)
		}
	}
	return out, nil
}

func init() {
	uploadCmd.Flags().String("targets", "", "Comma-separated target triples to upload (default: every matching file)")
	rootCmd.AddCommand(uploadCmd)
}
