package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initGitRepo builds a tagged repository with one conventional commit so
// changelog generation has real history to read.
func initGitRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	git := func(args ...string) {
		t.Helper()
		c := exec.Command("git", args...)
		c.Dir = repo
		if out, err := c.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	git("init", "-q")
	git("config", "user.email", "release@example.com")
	git("config", "user.name", "release bot")
	for name, body := range map[string]string{"README.md": "# tv\n", "LICENSE": "MIT\n"} {
		if err := os.WriteFile(filepath.Join(repo, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	git("add", ".")
	git("commit", "-q", "-m", "feat: initial import")
	git("tag", "1.2.3")
	return repo
}

func TestReleaseDryRunCompletes(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TVREL_SOURCE_DIR", initGitRepo(t))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"release", "--dry-run", "--targets", "x86_64-unknown-linux-gnu", "1.2.3"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("dry-run release failed: %v\n%s", err, out.String())
	}

	got := out.String()
	if !strings.Contains(got, "plan\tx86_64-unknown-linux-gnu\t") {
		t.Fatalf("expected planned commands in output:\n%s", got)
	}
	if !strings.Contains(got, "ok\tx86_64-unknown-linux-gnu") {
		t.Fatalf("expected the target summary line:\n%s", got)
	}
	if _, err := os.Stat(filepath.Join(home, ".tvrel", "tvrel.db")); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the ledger database")
	}
}
