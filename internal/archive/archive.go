// Package archive assembles and compresses distributable release archives.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/VoxDroid/tvrel/internal/target"
)

// Layout describes what goes into one target's staging directory.
//
// The archive root holds the binary, README.md and LICENSE; the doc/
// subdirectory holds CHANGELOG.md plus anything found under the source
// tree's docs/ and man/ directories.
type Layout struct {
	BinaryPath string // path to the built, stripped binary
	BinaryName string // filename inside the archive (tv or tv.exe)
	SourceDir  string // checkout root holding README.md, LICENSE, docs/, man/
	Changelog  []byte // rendered changelog body, written as doc/CHANGELOG.md
}

// Stage populates dir with the release layout. README.md and LICENSE are
// required; docs/ and man/ are copied when present.
func Stage(l Layout, dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, "doc"), 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	if err := copyFile(l.BinaryPath, filepath.Join(dir, l.BinaryName), 0o755); err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}
	for _, name := range []string{"README.md", "LICENSE"} {
		src := filepath.Join(l.SourceDir, name)
		if err := copyFile(src, filepath.Join(dir, name), 0o644); err != nil {
			return fmt.Errorf("stage %s: %w", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "doc", "CHANGELOG.md"), l.Changelog, 0o644); err != nil {
		return fmt.Errorf("stage changelog: %w", err)
	}
	for _, sub := range []string{"docs", "man"} {
		src := filepath.Join(l.SourceDir, sub)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyTree(src, filepath.Join(dir, "doc")); err != nil {
			return fmt.Errorf("stage %s: %w", sub, err)
		}
	}
	return nil
}

// Compress packs the staging directory into outPath using the target's
// archive format. Entry names are relative to the staging root so the
// archive unpacks with the binary at its top level.
func Compress(stagingDir string, format target.ArchiveFormat, outPath string) error {
	switch format {
	case target.Zip:
		return compressZip(stagingDir, outPath)
	default:
		return compressTarGz(stagingDir, outPath)
	}
}

func compressTarGz(dir, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	// A failed walk or close must not leave a truncated archive behind: it
	// would match the upload glob and get attached as a corrupt asset.
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = walkStaging(dir, func(rel string, info fs.FileInfo, path string) error {
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return fail(fmt.Errorf("write tarball: %w", err))
	}
	if err := tw.Close(); err != nil {
		return fail(err)
	}
	if err := gz.Close(); err != nil {
		return fail(err)
	}
	return f.Close()
}

func compressZip(dir, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(outPath)
		return err
	}

	zw := zip.NewWriter(f)
	err = walkStaging(dir, func(rel string, info fs.FileInfo, path string) error {
		if info.IsDir() {
			return nil
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = rel
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return fail(fmt.Errorf("write zip: %w", err))
	}
	if err := zw.Close(); err != nil {
		return fail(err)
	}
	return f.Close()
}

// walkStaging visits every entry under dir except the root itself, passing
// slash-separated relative names to fn.
func walkStaging(dir string, fn func(rel string, info fs.FileInfo, path string) error) error {
	return filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), info, path)
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// copyTree copies the regular files under src into dst, flattening nothing:
// relative structure below src is preserved.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		targetPath := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		// skip hidden editor leftovers
		if strings.HasPrefix(filepath.Base(path), ".") {
			return nil
		}
		return copyFile(path, targetPath, 0o644)
	})
}
