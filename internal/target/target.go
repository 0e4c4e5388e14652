// Package target defines the build matrix: the set of platform/architecture
// combinations tvrel packages for, plus tag validation and artifact naming.
package target

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// ArchiveFormat selects how a target's staging directory is compressed.
type ArchiveFormat int

const (
	// TarGz produces a gzip-compressed tarball (unix-like targets).
	TarGz ArchiveFormat = iota
	// Zip produces a zip archive (windows-class targets).
	Zip
)

// Ext returns the archive filename extension including the leading dot.
func (f ArchiveFormat) Ext() string {
	if f == Zip {
		return ".zip"
	}
	return ".tar.gz"
}

// Target is one (platform, architecture, toolchain) combination the matrix
// builds for.
type Target struct {
	Triple  string // toolchain triple, e.g. x86_64-unknown-linux-gnu
	OS      string // darwin, linux, windows
	Arch    string // x86_64, aarch64, i686
	Cross   bool   // native compilation unavailable, use a cross toolchain
	ExeExt  string // executable suffix, ".exe" on windows
	Archive ArchiveFormat
}

// Supported is the release matrix. Order matters only for display.
var Supported = []Target{
	{Triple: "x86_64-apple-darwin", OS: "darwin", Arch: "x86_64"},
	{Triple: "aarch64-apple-darwin", OS: "darwin", Arch: "aarch64"},
	{Triple: "x86_64-unknown-linux-gnu", OS: "linux", Arch: "x86_64"},
	{Triple: "x86_64-unknown-linux-musl", OS: "linux", Arch: "x86_64"},
	{Triple: "x86_64-pc-windows-msvc", OS: "windows", Arch: "x86_64", ExeExt: ".exe", Archive: Zip},
	{Triple: "aarch64-unknown-linux-gnu", OS: "linux", Arch: "aarch64", Cross: true},
	{Triple: "i686-unknown-linux-gnu", OS: "linux", Arch: "i686", Cross: true},
}

// FindByTriple returns the supported target with the given triple.
func FindByTriple(triple string) (Target, error) {
	for _, t := range Supported {
		if t.Triple == triple {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("unsupported target: %s", triple)
}

// Triples returns the triples of the given targets, preserving order.
func Triples(targets []Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Triple)
	}
	return out
}

// tagRe matches release tags: MAJOR.MINOR.PATCH with an optional leading v.
var tagRe = regexp.MustCompile(`^v?\d+\.\d+\.\d+$`)

// ValidTag reports whether tag is a release trigger tag. Both 1.2.3 and
// v1.2.3 are accepted; 1.2 and arbitrary strings are not.
func ValidTag(tag string) bool {
	if !tagRe.MatchString(tag) {
		return false
	}
	return semver.IsValid("v" + strings.TrimPrefix(tag, "v"))
}

// Version returns the tag without its optional v prefix. Artifact names and
// release bodies use the bare version.
func Version(tag string) string {
	return strings.TrimPrefix(tag, "v")
}

// ArchiveName returns the distributable archive filename for a tag/target
// pair, e.g. tv-1.2.3-x86_64-unknown-linux-gnu.tar.gz.
func (t Target) ArchiveName(bin, tag string) string {
	return fmt.Sprintf("%s-%s-%s%s", bin, Version(tag), t.Triple, t.Archive.Ext())
}

// ChecksumName returns the sibling checksum filename. Tarballs swap the
// .tar.gz suffix for .sha256; zips keep the .zip and append .sha256.
func (t Target) ChecksumName(bin, tag string) string {
	name := t.ArchiveName(bin, tag)
	if t.Archive == Zip {
		return name + ".sha256"
	}
	return strings.TrimSuffix(name, ".tar.gz") + ".sha256"
}

// BinaryName returns the executable filename inside the archive.
func (t Target) BinaryName(bin string) string {
	return bin + t.ExeExt
}
