// Package diffcheck compares a committed report with a freshly generated one.
package diffcheck

import (
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// Unified returns a unified diff from want to got, or "" when they are equal.
func Unified(wantName, gotName, want, got string) (string, error) {
	if want == got {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(want),
		B:        splitLinesKeepNL(got),
		FromFile: wantName,
		ToFile:   gotName,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(u)
}

// splitLinesKeepNL keeps line terminators so hunks reproduce the input exactly.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
