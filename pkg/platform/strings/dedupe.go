// Package strings provides small string-slice utilities shared by the
// normalization pipeline and the list stores.
package strings

import (
	"sort"
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  Abu Nidal ", "ANO", "Abu Nidal", "", "  "})
//	// Returns: []string{"Abu Nidal", "ANO"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// DedupeAndTrimLower is like DedupeAndTrim but also lowercases each element.
// Used where values are compared case-insensitively, e.g. source tag lists
// from configuration.
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// SortedCopy returns a lexicographically sorted copy, leaving the input
// untouched. Used to build order-insensitive comparison forms from tokens.
func SortedCopy(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
