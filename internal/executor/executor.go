// Package executor runs build and packaging commands in an OS-aware way.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Runner executes a single command line. It exists so the pipeline and
// changelog code can be tested with fake implementations instead of real
// toolchain invocations.
type Runner interface {
	Run(ctx context.Context, command string, cwd string, env []string, stdout io.Writer, stderr io.Writer) error
}

// Executor is the real Runner. It invokes commands through the platform
// shell (bash -c on unix, cmd /C on windows).
type Executor struct {
	DryRun  bool
	Verbose bool
	Shell   string // optional override, e.g. "pwsh"
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool) Runner {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// Run executes command. If cwd is non-empty the command runs in that
// directory; env entries (KEY=VALUE) are appended to the inherited
// environment. Captured stdout/stderr are written to the provided writers.
func (e *Executor) Run(ctx context.Context, command string, cwd string, env []string, stdout io.Writer, stderr io.Writer) error {
	command, err := validateCommand(command)
	if err != nil {
		return err
	}

	if e.DryRun {
		if e.Verbose {
			_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", command)
		}
		return nil
	}

	shell, args := shellInvocation(command, e.Shell)
	if _, err := exec.LookPath(shell); err != nil {
		return fmt.Errorf("shell not found in PATH: %s", shell)
	}

	cmd := exec.CommandContext(ctx, shell, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	var bout, berr bytes.Buffer
	cmd.Stdout = &bout
	cmd.Stderr = &berr
	runErr := cmd.Run()

	_, _ = stdout.Write(bout.Bytes())
	_, _ = stderr.Write(berr.Bytes())

	if runErr != nil {
		return commandError(runErr, &bout, &berr, command)
	}
	return nil
}

// Split tokenizes a command line respecting quoting, so callers can inspect
// the executable name of a configured command template.
func Split(s string) []string {
	if toks, err := shellquote.Split(s); err == nil {
		return toks
	}
	return strings.Fields(s)
}

// validateCommand normalizes unicode punctuation that editors sneak into
// config files (smart quotes, NBSP, zero-width runes) and rejects commands
// that still contain newlines or control characters.
func validateCommand(command string) (string, error) {
	r := strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", "\"",
		"”", "\"",
		" ", " ",
		"​", "",
	)
	command = strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, r.Replace(command))

	if strings.Contains(command, "\n") {
		return "", fmt.Errorf("invalid command: must be a single line")
	}
	if strings.IndexFunc(command, func(r rune) bool { return (r < 32 && r != '\t') || r == 0x7f }) != -1 {
		return "", fmt.Errorf("invalid command: contains control characters")
	}
	return command, nil
}

// commandError folds captured output into the returned error so a failed
// build step is diagnosable from the error alone.
func commandError(err error, bout, berr *bytes.Buffer, command string) error {
	errStr := strings.TrimSpace(berr.String())
	if errStr == "" {
		errStr = strings.TrimSpace(bout.String())
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if errStr != "" {
			return fmt.Errorf("command failed with exit code %d: %s (stderr=%q)", exitErr.ExitCode(), command, errStr)
		}
		return fmt.Errorf("command failed with exit code %d: %s", exitErr.ExitCode(), command)
	}
	if errStr != "" {
		return fmt.Errorf("command failed: %w (cmd=%q stderr=%q)", err, command, errStr)
	}
	return fmt.Errorf("command failed: %w (cmd=%q)", err, command)
}

func shellInvocation(command string, overrideShell string) (string, []string) {
	if overrideShell != "" {
		switch overrideShell {
		case "pwsh", "powershell":
			return overrideShell, []string{"-Command", command}
		default:
			return overrideShell, []string{"-c", command}
		}
	}
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}
	return "bash", []string{"-c", command}
}
