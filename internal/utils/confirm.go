// Package utils provides utility functions.
package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prompts with msg on w and expects y/n on r. Returns true for yes.
// Non-interactive callers should pass an empty reader, which answers no.
func Confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", msg)
	line, _ := bufio.NewReader(r).ReadString('\n')
	resp := strings.TrimSpace(strings.ToLower(line))
	return resp == "y" || resp == "yes"
}
