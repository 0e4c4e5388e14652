// Package changelog renders the release notes for a tag from git history.
package changelog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/target"
)

// Generator produces changelog bodies by diffing commit history between the
// previous release tag and the requested one.
type Generator struct {
	Runner  executor.Runner
	RepoDir string
}

// New returns a Generator running git in repoDir.
func New(r executor.Runner, repoDir string) *Generator {
	return &Generator{Runner: r, RepoDir: repoDir}
}

// Generate renders the changelog document for tag: a document header
// followed by the grouped changes since the previous release tag. The
// archived CHANGELOG.md uses the document as-is; release bodies strip the
// header with StripHeader. The tag must exist in the repository; any git
// failure aborts the release before anything is published.
func (g *Generator) Generate(ctx context.Context, tag string) (string, error) {
	tags, err := g.tags(ctx)
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	prev, err := previousTag(tags, tag)
	if err != nil {
		return "", err
	}

	rangeSpec := tag
	if prev != "" {
		rangeSpec = prev + ".." + tag
	}
	log.WithFields(log.Fields{"tag": tag, "previous": prev}).Info("generating changelog")

	// Hash first: it cannot contain spaces, so the subject parses cleanly
	// no matter what characters it holds.
	out, err := g.git(ctx, fmt.Sprintf(`git log %s --no-merges "--pretty=format:%%h %%s"`, rangeSpec))
	if err != nil {
		return "", fmt.Errorf("log commits for %s: %w", rangeSpec, err)
	}
	return render(tag, parseCommits(out)), nil
}

// tags returns all repository tags sorted newest-first by version.
func (g *Generator) tags(ctx context.Context) ([]string, error) {
	out, err := g.git(ctx, "git tag --list --sort=-version:refname")
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

func (g *Generator) git(ctx context.Context, command string) (string, error) {
	var out bytes.Buffer
	if err := g.Runner.Run(ctx, command, g.RepoDir, nil, &out, io.Discard); err != nil {
		return "", err
	}
	return out.String(), nil
}

// previousTag finds the release tag immediately preceding tag in the
// newest-first list. An empty string means tag is the first release and the
// changelog covers full history.
func previousTag(tags []string, tag string) (string, error) {
	for i, t := range tags {
		if t == tag {
			for _, older := range tags[i+1:] {
				if target.ValidTag(older) {
					return older, nil
				}
			}
			return "", nil
		}
	}
	return "", fmt.Errorf("tag not found in repository: %s", tag)
}

type commit struct {
	subject string
	hash    string
}

func parseCommits(out string) []commit {
	var commits []commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		hash, subject, found := strings.Cut(line, " ")
		if !found {
			hash, subject = "", line
		}
		commits = append(commits, commit{subject: strings.TrimSpace(subject), hash: hash})
	}
	return commits
}

// render groups commits by conventional-commit prefix into a markdown
// document with the standard changelog preamble.
func render(tag string, commits []commit) string {
	var features, fixes, other []commit
	for _, c := range commits {
		switch {
		case hasTypePrefix(c.subject, "feat"):
			features = append(features, c)
		case hasTypePrefix(c.subject, "fix"):
			fixes = append(fixes, c)
		default:
			other = append(other, c)
		}
	}

	var b strings.Builder
	b.WriteString("# Changelog\n\nAll notable changes to this project are documented in this file.\n\n")
	fmt.Fprintf(&b, "## %s\n", target.Version(tag))
	section(&b, "Features", features)
	section(&b, "Bug Fixes", fixes)
	section(&b, "Other", other)
	return b.String()
}

func section(b *strings.Builder, title string, commits []commit) {
	if len(commits) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, c := range commits {
		subject := stripTypePrefix(c.subject)
		if c.hash != "" {
			fmt.Fprintf(b, "- %s (%s)\n", subject, c.hash)
		} else {
			fmt.Fprintf(b, "- %s\n", subject)
		}
	}
}

// hasTypePrefix matches "feat:", "feat(scope):" and the breaking-change
// variants "feat!:" / "feat(scope)!:".
func hasTypePrefix(subject, typ string) bool {
	if !strings.HasPrefix(subject, typ) {
		return false
	}
	rest := subject[len(typ):]
	if i := strings.IndexByte(rest, ')'); strings.HasPrefix(rest, "(") && i > 0 {
		rest = rest[i+1:]
	}
	rest = strings.TrimPrefix(rest, "!")
	return strings.HasPrefix(rest, ":")
}

func stripTypePrefix(subject string) string {
	if i := strings.Index(subject, ": "); i > 0 && i < 20 {
		return subject[i+2:]
	}
	return subject
}

// StripHeader removes the document preamble (title and description above the
// first version heading) from a full changelog document, leaving only the
// version sections that make up a release body.
func StripHeader(doc string) string {
	idx := strings.Index(doc, "\n## ")
	if idx < 0 {
		if strings.HasPrefix(doc, "## ") {
			return doc
		}
		return strings.TrimLeft(doc, "\n")
	}
	return doc[idx+1:]
}
