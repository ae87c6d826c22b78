// Package strings provides ordered-set helpers for tag lists.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
//	DedupeAndTrim([]string{"  hospital-er ", "hospital-er", ""})
//	// Returns: []string{"hospital-er"}
func DedupeAndTrim(values []string) []string {
	return AppendUnique(make([]string, 0, len(values)), values...)
}

// AppendUnique appends each trimmed, non-empty tag that set does not already
// contain. set is assumed to be deduplicated already.
func AppendUnique(set []string, tags ...string) []string {
	seen := make(map[string]struct{}, len(set)+len(tags))
	for _, v := range set {
		seen[v] = struct{}{}
	}
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		set = append(set, trimmed)
	}
	return set
}
