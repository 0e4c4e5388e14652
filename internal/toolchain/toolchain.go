// Package toolchain decides which commands acquire, build and strip for a
// given target triple.
package toolchain

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/VoxDroid/tvrel/internal/executor"
	"github.com/VoxDroid/tvrel/internal/target"
)

// Overrides lets the config file replace any default command. Templates may
// reference {triple} and {bin}; empty fields keep the default.
type Overrides struct {
	Install string
	Build   string
	Strip   string
}

// Plan is the ordered set of commands that produce a stripped binary for
// one target. Each step is a hard gate for that target only.
type Plan struct {
	Install    string // acquire the toolchain for the triple
	Build      string // compile in release mode
	Strip      string // strip debug symbols; empty means skip
	BinaryPath string // build output, relative to the source dir
}

// For returns the command plan for t, building the binary named bin.
//
// Defaults assume the rustup/cargo toolchain the released binary is built
// with: native targets get `rustup target add` + `cargo build`, cross
// targets build through `cross` so the matching cross toolchain is acquired
// implicitly.
func For(t target.Target, bin string, o Overrides) Plan {
	p := Plan{
		Install:    fmt.Sprintf("rustup target add %s", t.Triple),
		Build:      fmt.Sprintf("cargo build --release --target %s", t.Triple),
		Strip:      stripCommand(t),
		BinaryPath: filepath.Join("target", t.Triple, "release", t.BinaryName(bin)),
	}
	if t.Cross {
		p.Install = "cargo install cross --locked"
		p.Build = fmt.Sprintf("cross build --release --target %s", t.Triple)
	}
	if o.Install != "" {
		p.Install = expand(o.Install, t, bin)
	}
	if o.Build != "" {
		p.Build = expand(o.Build, t, bin)
	}
	if o.Strip != "" {
		p.Strip = expand(o.Strip, t, bin)
	}
	return p
}

// stripCommand picks the strip tool for t. Windows binaries carry no
// strippable symbol table (MSVC emits PDBs), so the step is skipped. When
// the target architecture differs from the build host's, the foreign-arch
// binutils strip is required.
func stripCommand(t target.Target) string {
	if t.OS == "windows" {
		return ""
	}
	tool := "strip"
	if t.Arch != hostArch() && t.OS == "linux" {
		tool = fmt.Sprintf("%s-linux-gnu-strip", t.Arch)
	}
	return tool + " {binary}"
}

// hostArch maps the Go runtime arch onto the triple vocabulary.
func hostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return runtime.GOARCH
	}
}

// StripFor renders the plan's strip command against the actual binary path.
func (p Plan) StripFor(binaryPath string) string {
	if p.Strip == "" {
		return ""
	}
	return strings.ReplaceAll(p.Strip, "{binary}", binaryPath)
}

// CheckStripTool verifies the strip executable exists before the build is
// attempted, so a missing foreign-arch strip fails the target early.
func (p Plan) CheckStripTool() error {
	if p.Strip == "" {
		return nil
	}
	toks := executor.Split(p.Strip)
	if len(toks) == 0 {
		return fmt.Errorf("empty strip command")
	}
	if _, err := exec.LookPath(toks[0]); err != nil {
		return fmt.Errorf("strip tool not found: %s", toks[0])
	}
	return nil
}

func expand(tmpl string, t target.Target, bin string) string {
	r := strings.NewReplacer(
		"{triple}", t.Triple,
		"{bin}", bin,
	)
	return r.Replace(tmpl)
}
