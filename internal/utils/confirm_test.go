package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":    true,
		"yes\n":  true,
		"Y\n":    true,
		"n\n":    false,
		"\n":     false,
		"":       false,
		"nope\n": false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(input), &out, "Publish release 1.2.3 now?")
		if got != want {
			t.Errorf("Confirm(%q) = %v, want %v", input, got, want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt missing [y/N]: %q", out.String())
		}
	}
}
