// Package utils contains general helper functions shared by the treetext packages.
package utils

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// NormalizePatterns drops empty values and deduplicates. Whitespace is part of
// a glob and is kept. It returns nil when nothing remains so that an empty set
// stays distinguishable from a configured one.
func NormalizePatterns(patterns []string) []string {
	kept := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == EmptyString {
			continue
		}
		kept = append(kept, pattern)
	}
	if len(kept) == 0 {
		return nil
	}
	return DeduplicatePatterns(kept)
}

// MergePatterns appends additional patterns to base, skipping ones already present.
func MergePatterns(base []string, additional ...[]string) []string {
	merged := append([]string{}, base...)
	for _, patterns := range additional {
		for _, pattern := range patterns {
			if !ContainsString(merged, pattern) {
				merged = append(merged, pattern)
			}
		}
	}
	return NormalizePatterns(merged)
}

// ContainsString checks if a slice of strings contains a specific target string.
func ContainsString(stringSlice []string, targetString string) bool {
	for _, currentString := range stringSlice {
		if currentString == targetString {
			return true
		}
	}
	return false
}

// Pluralize returns singular when count is one and plural otherwise.
func Pluralize(count int, singular string, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
