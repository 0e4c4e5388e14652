package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileMatchesIndependentDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz")
	payload := []byte("not really a tarball but stable bytes")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := File(path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}
	sum := sha256.Sum256(payload)
	want := hex.EncodeToString(sum[:])
	if got != want {
		t.Fatalf("digest mismatch: got %s want %s", got, want)
	}
	if got != strings.ToLower(got) {
		t.Fatal("digest must be lowercase hex")
	}
}

func TestWriteAndVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tv-1.2.3-x86_64-pc-windows-msvc.zip")
	if err := os.WriteFile(path, []byte("zip bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := Write(path, "tv-1.2.3-x86_64-pc-windows-msvc.zip.sha256")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if filepath.Base(out) != "tv-1.2.3-x86_64-pc-windows-msvc.zip.sha256" {
		t.Fatalf("unexpected checksum file name: %s", out)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	line := string(b)
	if !strings.HasSuffix(line, "  tv-1.2.3-x86_64-pc-windows-msvc.zip\n") {
		t.Fatalf("unexpected checksum file format: %q", line)
	}

	if err := Verify(path, out); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tv-0.1.0-aarch64-apple-darwin.tar.gz")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := Write(path, "tv-0.1.0-aarch64-apple-darwin.sha256")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Verify(path, out); err == nil {
		t.Fatal("expected mismatch error after modifying artifact")
	}
}

func TestParseMalformed(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.sha256")
	if err := os.WriteFile(p, []byte("nothex  file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(p); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}
