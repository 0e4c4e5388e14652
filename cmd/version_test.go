package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/VoxDroid/tvrel/internal/version"
)

func TestVersionOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(out.String(), version.Version) {
		t.Fatalf("expected %s in output, got: %q", version.Version, out.String())
	}
}
