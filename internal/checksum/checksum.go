// Package checksum computes SHA-256 digests for release artifacts.
//
// The digest is always computed over the final compressed archive, never the
// raw binary, and is rendered as lowercase hex on every host OS. Hashing
// in-process keeps the output identical whether the release runs on a unix
// host (where shasum would be the native tool) or on windows (certutil),
// which is a correctness requirement for the published .sha256 files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File computes the SHA-256 of the file at path and returns the lowercase
// hex digest.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write hashes the artifact at path and writes a sibling checksum file with
// the given name (in the artifact's directory). The file format matches
// shasum output: "<hex>  <artifact-name>\n".
func Write(path, checksumName string) (string, error) {
	digest, err := File(path)
	if err != nil {
		return "", err
	}
	out := filepath.Join(filepath.Dir(path), checksumName)
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(path))
	if err := os.WriteFile(out, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("write checksum file: %w", err)
	}
	return out, nil
}

// Verify recomputes the artifact digest and compares it against the digest
// recorded in checksumPath.
func Verify(artifactPath, checksumPath string) error {
	want, err := Parse(checksumPath)
	if err != nil {
		return err
	}
	got, err := File(artifactPath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: recorded %s, computed %s", filepath.Base(artifactPath), want, got)
	}
	return nil
}

// Parse reads the hex digest from a checksum file.
func Parse(checksumPath string) (string, error) {
	b, err := os.ReadFile(checksumPath)
	if err != nil {
		return "", fmt.Errorf("read checksum file: %w", err)
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file: %s", checksumPath)
	}
	digest := strings.ToLower(fields[0])
	if len(digest) != 64 {
		return "", fmt.Errorf("malformed digest in %s: %q", checksumPath, fields[0])
	}
	return digest, nil
}
