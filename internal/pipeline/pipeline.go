// Package pipeline orchestrates the per-target packaging matrix.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/VoxDroid/tvrel/internal/archive"
	"github.com/VoxDroid/tvrel/internal/checksum"
	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/forge"
	"github.com/VoxDroid/tvrel/internal/ledger"
	"github.com/VoxDroid/tvrel/internal/security"
	"github.com/VoxDroid/tvrel/internal/target"
	"github.com/VoxDroid/tvrel/internal/toolchain"
)

// Options configures one matrix run.
type Options struct {
	Tag       string
	Bin       string
	SourceDir string
	DistDir   string
	Targets   []target.Target
	Overrides toolchain.Overrides
	Changelog []byte

	// Forge and ReleaseID enable per-target upload after packaging. A nil
	// Forge skips uploads (local packaging).
	Forge     forge.Forge
	ReleaseID int64

	// DryRun prints each target's planned commands to Output and stops
	// before building, packaging or recording anything.
	DryRun bool

	// SkipToolCheck disables the strip-tool PATH probe; used by dry runs
	// where nothing is actually stripped.
	SkipToolCheck bool

	// Output receives command output. Defaults to io.Discard.
	Output io.Writer
}

// Result is one target's outcome. Artifacts are paths of the produced
// archive + checksum, present only on success.
type Result struct {
	Target    target.Target
	Artifacts []string
	Err       error
}

// Failed reports whether any result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline runs packaging jobs. Ledger is optional; when set, per-target
// outcomes and artifact digests are recorded.
type Pipeline struct {
	Runner executor.Runner
	Ledger *ledger.Repository
	RunID  int64
}

// Run executes the matrix: one job per target, all in parallel, each in its
// own workspace. A failing target never cancels the others; callers inspect
// the per-target results.
func (p *Pipeline) Run(ctx context.Context, opts Options) []Result {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	results := make([]Result, len(opts.Targets))

	var wg sync.WaitGroup
	for i, tgt := range opts.Targets {
		wg.Add(1)
		go func(i int, tgt target.Target) {
			defer wg.Done()
			artifacts, err := p.packageTarget(ctx, tgt, opts)
			results[i] = Result{Target: tgt, Artifacts: artifacts, Err: err}
			if !opts.DryRun {
				uploaded := opts.Forge != nil && err == nil
				p.record(tgt, artifacts, uploaded, err)
			}
		}(i, tgt)
	}
	wg.Wait()
	return results
}

// packageTarget runs the ordered steps for one target. Every step is a hard
// gate: the first failure aborts this target only.
func (p *Pipeline) packageTarget(ctx context.Context, tgt target.Target, opts Options) ([]string, error) {
	logger := log.WithFields(log.Fields{"target": tgt.Triple, "tag": opts.Tag})
	plan := toolchain.For(tgt, opts.Bin, opts.Overrides)

	if err := security.CheckPlan(plan.Install, plan.Build, plan.Strip); err != nil {
		return nil, err
	}
	if !opts.SkipToolCheck {
		if err := plan.CheckStripTool(); err != nil {
			return nil, err
		}
	}

	if opts.DryRun {
		for _, c := range []string{plan.Install, plan.Build, plan.StripFor(plan.BinaryPath)} {
			if c != "" {
				fmt.Fprintf(opts.Output, "plan\t%s\t%s\n", tgt.Triple, c)
			}
		}
		return nil, nil
	}

	logger.Info("installing toolchain")
	if err := p.Runner.Run(ctx, plan.Install, opts.SourceDir, nil, opts.Output, opts.Output); err != nil {
		return nil, fmt.Errorf("install toolchain: %w", err)
	}

	logger.Info("building")
	if err := p.Runner.Run(ctx, plan.Build, opts.SourceDir, nil, opts.Output, opts.Output); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	binaryPath := filepath.Join(opts.SourceDir, plan.BinaryPath)
	if stripCmd := plan.StripFor(plan.BinaryPath); stripCmd != "" {
		logger.Info("stripping symbols")
		if err := p.Runner.Run(ctx, stripCmd, opts.SourceDir, nil, opts.Output, opts.Output); err != nil {
			return nil, fmt.Errorf("strip: %w", err)
		}
	}

	artifacts, err := p.packageArtifacts(tgt, opts, binaryPath)
	if err != nil {
		return nil, err
	}

	if opts.Forge != nil {
		for _, a := range artifacts {
			if err := opts.Forge.UploadAsset(ctx, opts.ReleaseID, a); err != nil {
				return artifacts, fmt.Errorf("upload: %w", err)
			}
		}
		logger.Info("artifacts uploaded")
	}
	return artifacts, nil
}

// packageArtifacts stages, compresses and checksums one target's build
// output, returning the archive and checksum paths.
func (p *Pipeline) packageArtifacts(tgt target.Target, opts Options, binaryPath string) ([]string, error) {
	if err := os.MkdirAll(opts.DistDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dist dir: %w", err)
	}
	staging, err := os.MkdirTemp("", "tvrel-"+tgt.Triple+"-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	layout := archive.Layout{
		BinaryPath: binaryPath,
		BinaryName: tgt.BinaryName(opts.Bin),
		SourceDir:  opts.SourceDir,
		Changelog:  opts.Changelog,
	}
	if err := archive.Stage(layout, staging); err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}

	archivePath := filepath.Join(opts.DistDir, tgt.ArchiveName(opts.Bin, opts.Tag))
	if err := archive.Compress(staging, tgt.Archive, archivePath); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	checksumPath, err := checksum.Write(archivePath, tgt.ChecksumName(opts.Bin, opts.Tag))
	if err != nil {
		return nil, fmt.Errorf("checksum: %w", err)
	}
	return []string{archivePath, checksumPath}, nil
}

// record writes one target's outcome to the ledger, when one is attached.
func (p *Pipeline) record(tgt target.Target, artifacts []string, uploaded bool, jobErr error) {
	if p.Ledger == nil {
		return
	}
	status := ledger.StatusOK
	if jobErr != nil {
		status = ledger.StatusFailed
	}
	if err := p.Ledger.RecordTargetResult(p.RunID, tgt.Triple, status, jobErr); err != nil {
		log.WithError(err).Warn("recording target result failed")
	}
	for _, a := range artifacts {
		digest, err := checksum.File(a)
		if err != nil {
			continue
		}
		var size int64
		if info, err := os.Stat(a); err == nil {
			size = info.Size()
		}
		if err := p.Ledger.RecordArtifact(p.RunID, tgt.Triple, filepath.Base(a), digest, size, uploaded); err != nil {
			log.WithError(err).Warn("recording artifact failed")
		}
	}
}
