// Package runtime locates installed language toolchains and caches the
// results for the process lifetime.
package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Tool describes one executable to locate: ordered candidates to try on the
// search path, how to probe its version, and the minimum acceptable version.
type Tool struct {
	Candidates     []string
	ProbeArgs      []string
	VersionPattern string // regexp with one capture group around the version
	MinVersion     string // e.g. "3.8"; empty means any version
}

// Descriptor is the static metadata for one supported language. Immutable
// after registration; looked up by Name.
type Descriptor struct {
	Name      string
	Extension string // source file extension, including the dot
	Runner    Tool
	Compiler  *Tool // non-nil for languages with a separate compile step
}

// Resolved is a located toolchain for one language.
type Resolved struct {
	Path            string
	Version         string
	CompilerPath    string // empty when the descriptor has no separate compiler
	CompilerVersion string
}

// NotFoundError indicates no candidate executable satisfied the descriptor.
type NotFoundError struct {
	Language string
	Tried    []string
	Reason   string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("runtime for %q not found (tried %s)", e.Language, strings.Join(e.Tried, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ProbeTimeoutError indicates every version probe for the language timed out.
type ProbeTimeoutError struct {
	Language string
}

func (e *ProbeTimeoutError) Error() string {
	return fmt.Sprintf("version probe for %q timed out on every candidate", e.Language)
}

// ParseVersion extracts a version string from probe output using the tool's
// pattern.
func (t Tool) ParseVersion(output string) (string, error) {
	re, err := regexp.Compile(t.VersionPattern)
	if err != nil {
		return "", fmt.Errorf("version pattern: %w", err)
	}
	m := re.FindStringSubmatch(output)
	if len(m) < 2 {
		return "", fmt.Errorf("no version in probe output %q", strings.TrimSpace(firstLine(output)))
	}
	return m[1], nil
}

// meetsMinimum reports whether version satisfies the tool's floor.
func (t Tool) meetsMinimum(version string) bool {
	if t.MinVersion == "" {
		return true
	}
	v, min := "v"+version, "v"+t.MinVersion
	if !semver.IsValid(v) || !semver.IsValid(min) {
		return false
	}
	return semver.Compare(v, min) >= 0
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i]
	}
	return s
}
