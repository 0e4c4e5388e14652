// Package forge publishes releases and uploads artifacts to the hosting
// platform.
package forge

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-github/v52/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/VoxDroid/tvrel/internal/target"
)

// Forge is the subset of release-hosting operations the pipeline needs.
// The GitHub implementation below is the only real one; tests substitute
// fakes.
type Forge interface {
	// CreateRelease publishes a release for tag with the given body and
	// returns its id.
	CreateRelease(ctx context.Context, tag, name, body string, draft, prerelease bool) (int64, error)
	// ResolveRelease returns the id of the existing release for tag,
	// retrying a bounded number of times while the release is not yet
	// visible.
	ResolveRelease(ctx context.Context, tag string) (int64, error)
	// UploadAsset attaches the file at path to the release. Assets already
	// present under the same name are skipped, making re-runs idempotent.
	UploadAsset(ctx context.Context, releaseID int64, path string) error
}

// GitHub talks to the GitHub releases API with a write-scoped token.
type GitHub struct {
	Owner string
	Repo  string

	// ResolveAttempts and ResolveDelay bound the retry loop in
	// ResolveRelease. Zero values get defaults.
	ResolveAttempts int
	ResolveDelay    time.Duration

	client *github.Client
}

// NewGitHub returns a GitHub forge authenticated with token.
func NewGitHub(ctx context.Context, owner, repo, token string) *GitHub {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &GitHub{
		Owner:  owner,
		Repo:   repo,
		client: github.NewClient(oauth2.NewClient(ctx, ts)),
	}
}

// CreateRelease publishes a release record for tag.
func (g *GitHub) CreateRelease(ctx context.Context, tag, name, body string, draft, prerelease bool) (int64, error) {
	rel, _, err := g.client.Repositories.CreateRelease(ctx, g.Owner, g.Repo, &github.RepositoryRelease{
		TagName:    github.String(tag),
		Name:       github.String(name),
		Body:       github.String(body),
		Draft:      github.Bool(draft),
		Prerelease: github.Bool(prerelease),
	})
	if err != nil {
		return 0, fmt.Errorf("create release %s: %w", tag, err)
	}
	log.WithFields(log.Fields{"tag": tag, "id": rel.GetID()}).Info("release created")
	return rel.GetID(), nil
}

// ResolveRelease looks up the release for tag, retrying while it is not yet
// visible. Uploads must never reference a release that does not exist, so
// callers either create the release first or lean on this retry.
func (g *GitHub) ResolveRelease(ctx context.Context, tag string) (int64, error) {
	attempts := g.ResolveAttempts
	if attempts <= 0 {
		attempts = 5
	}
	delay := g.ResolveDelay
	if delay <= 0 {
		delay = 3 * time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}
		rel, resp, err := g.client.Repositories.GetReleaseByTag(ctx, g.Owner, g.Repo, tag)
		if err == nil {
			return rel.GetID(), nil
		}
		lastErr = err
		if resp != nil && resp.StatusCode != http.StatusNotFound {
			break
		}
		log.WithFields(log.Fields{"tag": tag, "attempt": i + 1}).Warn("release not visible yet")
	}
	return 0, fmt.Errorf("resolve release %s: %w", tag, lastErr)
}

// UploadAsset attaches one artifact file, skipping names that already exist
// on the release.
func (g *GitHub) UploadAsset(ctx context.Context, releaseID int64, path string) error {
	name := filepath.Base(path)
	existing, err := g.assetNames(ctx, releaseID)
	if err != nil {
		return err
	}
	if existing[name] {
		log.WithField("asset", name).Info("asset already attached, skipping")
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open asset %s: %w", name, err)
	}
	defer f.Close()

	_, _, err = g.client.Repositories.UploadReleaseAsset(ctx, g.Owner, g.Repo, releaseID,
		&github.UploadOptions{Name: name}, f)
	if err != nil {
		return fmt.Errorf("upload asset %s: %w", name, err)
	}
	log.WithField("asset", name).Info("asset uploaded")
	return nil
}

func (g *GitHub) assetNames(ctx context.Context, releaseID int64) (map[string]bool, error) {
	names := map[string]bool{}
	opts := &github.ListOptions{PerPage: 100}
	for {
		assets, resp, err := g.client.Repositories.ListReleaseAssets(ctx, g.Owner, g.Repo, releaseID, opts)
		if err != nil {
			return nil, fmt.Errorf("list release assets: %w", err)
		}
		for _, a := range assets {
			names[a.GetName()] = true
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return names, nil
}

// MatchArtifacts returns the files in dir that belong on the release for
// bin: the archives and their checksum companions.
func MatchArtifacts(dir, bin string) ([]string, error) {
	var out []string
	for _, pattern := range []string{bin + "-*.tar.gz", bin + "-*.zip", bin + "-*.sha256"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	return dedupe(out), nil
}

// ArtifactsFor returns the expected artifact paths for one target, whether
// or not they exist yet.
func ArtifactsFor(dir, bin, tag string, t target.Target) []string {
	return []string{
		filepath.Join(dir, t.ArchiveName(bin, tag)),
		filepath.Join(dir, t.ChecksumName(bin, tag)),
	}
}

func dedupe(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
