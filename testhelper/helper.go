// Package testhelper holds helpers shared by tests.
package testhelper

import (
	"regexp"
	"strings"
	"testing"
)

var (
	leadingWhitespace = regexp.MustCompile(`^\s+`)
	leadingTabs       = regexp.MustCompile(`^\t+`)
)

// TrimIndent lets tests embed YAML in indented raw strings. The first line is
// dropped, the indentation of the second line is removed from every line, and
// remaining leading tabs become two spaces each because YAML rejects tabs.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")
	if len(lines) < 2 {
		return src
	}

	indent := leadingWhitespace.FindString(lines[1])

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, func(tabs string) string {
			return strings.Repeat("  ", len(tabs))
		})
	}

	return strings.TrimRight(strings.Join(lines[1:], "\n"), " \t")
}
