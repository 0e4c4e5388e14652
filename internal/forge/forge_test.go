package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-github/v52/github"

	"github.com/VoxDroid/tvrel/internal/target"
)

// stubGitHub points a GitHub forge at a local API stub. The handler serves
// both the asset listing and the upload endpoint for release 77.
func stubGitHub(t *testing.T, attached []string, uploads *int) *GitHub {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/releases/77/assets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, "[")
			for i, name := range attached {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id": %d, "name": %q}`, i+1, name)
			}
			fmt.Fprint(w, "]")
		case http.MethodPost:
			*uploads++
			fmt.Fprintf(w, `{"id": 99, "name": %q}`, r.URL.Query().Get("name"))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	client := github.NewClient(nil)
	client.BaseURL = base
	client.UploadURL = base
	return &GitHub{Owner: "o", Repo: "r", client: client}
}

func TestUploadAssetSkipsExisting(t *testing.T) {
	var uploads int
	g := stubGitHub(t, []string{"tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz"}, &uploads)

	dir := t.TempDir()
	attached := filepath.Join(dir, "tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz")
	if err := os.WriteFile(attached, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.UploadAsset(context.Background(), 77, attached); err != nil {
		t.Fatalf("UploadAsset failed: %v", err)
	}
	if uploads != 0 {
		t.Fatal("already-attached asset must not be uploaded again")
	}

	fresh := filepath.Join(dir, "tv-1.2.3-aarch64-apple-darwin.tar.gz")
	if err := os.WriteFile(fresh, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := g.UploadAsset(context.Background(), 77, fresh); err != nil {
		t.Fatalf("UploadAsset failed: %v", err)
	}
	if uploads != 1 {
		t.Fatalf("expected exactly one upload, got %d", uploads)
	}
}

func TestMatchArtifacts(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz",
		"tv-1.2.3-x86_64-unknown-linux-gnu.sha256",
		"tv-1.2.3-x86_64-pc-windows-msvc.zip",
		"tv-1.2.3-x86_64-pc-windows-msvc.zip.sha256",
		"tv",            // raw binary, never uploaded
		"notes.txt",     // unrelated
		"othertool.zip", // different binary prefix
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := MatchArtifacts(dir, "tv")
	if err != nil {
		t.Fatalf("MatchArtifacts failed: %v", err)
	}
	var bases []string
	for _, p := range got {
		bases = append(bases, filepath.Base(p))
	}
	sort.Strings(bases)
	want := []string{
		"tv-1.2.3-x86_64-pc-windows-msvc.zip",
		"tv-1.2.3-x86_64-pc-windows-msvc.zip.sha256",
		"tv-1.2.3-x86_64-unknown-linux-gnu.sha256",
		"tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz",
	}
	if len(bases) != len(want) {
		t.Fatalf("unexpected matches: %v", bases)
	}
	for i := range want {
		if bases[i] != want[i] {
			t.Fatalf("match %d: got %s want %s", i, bases[i], want[i])
		}
	}
}

func TestArtifactsFor(t *testing.T) {
	tgt, err := target.FindByTriple("aarch64-apple-darwin")
	if err != nil {
		t.Fatal(err)
	}
	paths := ArtifactsFor("/dist", "tv", "v1.2.3", tgt)
	if len(paths) != 2 {
		t.Fatalf("expected archive + checksum, got %v", paths)
	}
	if filepath.Base(paths[0]) != "tv-1.2.3-aarch64-apple-darwin.tar.gz" {
		t.Fatalf("unexpected archive path: %s", paths[0])
	}
	if filepath.Base(paths[1]) != "tv-1.2.3-aarch64-apple-darwin.sha256" {
		t.Fatalf("unexpected checksum path: %s", paths[1])
	}
}
