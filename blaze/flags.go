// Package blaze models the parts of a Bazel workspace needed to address a
// test: the workspace root, BUILD packages, test targets and runner flags.
package blaze

import "strings"

// TestFilterFlag selects test cases within a test target.
const TestFilterFlag = "--test_filter"

// FormatTestFilter renders filter as a command-line flag.
func FormatTestFilter(filter string) string {
	return TestFilterFlag + "=" + filter
}

// StripTestFilter returns flags without any test filter flag.
func StripTestFilter(flags []string) []string {
	stripped := make([]string, 0, len(flags))
	for _, flag := range flags {
		if strings.HasPrefix(flag, TestFilterFlag) {
			continue
		}
		stripped = append(stripped, flag)
	}
	return stripped
}

// WithTestFilter replaces any test filter in flags with filter.
func WithTestFilter(flags []string, filter string) []string {
	return append(StripTestFilter(flags), FormatTestFilter(filter))
}

// FindTestFilterFlag returns the first test filter flag in flags.
func FindTestFilterFlag(flags []string) (string, bool) {
	for _, flag := range flags {
		if strings.HasPrefix(flag, TestFilterFlag) {
			return flag, true
		}
	}
	return "", false
}
