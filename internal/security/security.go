// Package security provides security-related utilities.
package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Command overrides come from the config file, which may be checked into the
// released repository; a poisoned override must not be able to wreck the
// build host.
var dangerousPatterns = []*regexp.Regexp{
	// Destructive filesystem ops
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/?$`),
	regexp.MustCompile(`(?i)\brm\s+-rf\s+/`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	// fork bombs (e.g. :(){ :|:& };:)
	regexp.MustCompile(`:\(\)\s*\{`),
	// wipe disk
	regexp.MustCompile(`(?i)\bwipefs\b`),
	// credential exfiltration from the release environment
	regexp.MustCompile(`(?i)\bcurl\b.*\$\{?GITHUB_TOKEN`),
	regexp.MustCompile(`(?i)\bwget\b.*\$\{?GITHUB_TOKEN`),
}

// CheckAllowed returns nil if the command is allowed to run, or an error
// describing why it's blocked. Checking is conservative and not exhaustive.
func CheckAllowed(command string) error {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return errors.New("empty command")
	}
	for _, re := range dangerousPatterns {
		if re.MatchString(cmd) {
			return errors.New("command appears destructive or unsafe")
		}
	}
	return nil
}

// CheckPlan validates every command in a build plan. The first blocked
// command fails the whole plan.
func CheckPlan(commands ...string) error {
	for _, c := range commands {
		if c == "" {
			continue
		}
		if err := CheckAllowed(c); err != nil {
			return fmt.Errorf("refusing command %q: %w", c, err)
		}
	}
	return nil
}
