// Package filter decides which directory entries appear in a rendered tree.
package filter

import (
	"strings"
)

const (
	// HiddenEntryPrefix marks hidden entries on POSIX-style systems.
	HiddenEntryPrefix = "."

	pathSegmentSeparator = "/"
	windowsSeparator     = "\\"
)

// Options configures a Filter.
type Options struct {
	IncludeHidden bool
	// NamePatterns are matched against the bare entry name.
	NamePatterns []string
	// PathPatterns are matched against the entry path relative to the scan root,
	// joined with forward slashes. They are consulted only when NamePatterns is empty.
	PathPatterns []string
	IgnoreCase   bool
}

// Filter applies the hidden-entry policy and the exclusion patterns.
type Filter struct {
	includeHidden bool
	namePatterns  []Pattern
	pathPatterns  []Pattern
}

// New compiles the patterns in options.
func New(options Options) (*Filter, error) {
	namePatterns, nameError := compilePatterns(options.NamePatterns, options.IgnoreCase, false)
	if nameError != nil {
		return nil, nameError
	}
	pathPatterns, pathError := compilePatterns(options.PathPatterns, options.IgnoreCase, true)
	if pathError != nil {
		return nil, pathError
	}
	return &Filter{
		includeHidden: options.IncludeHidden,
		namePatterns:  namePatterns,
		pathPatterns:  pathPatterns,
	}, nil
}

// ShouldSkip reports whether the entry is excluded from the tree.
//
// Hidden entries are rejected first. When any name pattern is configured only
// name patterns are evaluated and path patterns are ignored entirely, even if
// no name pattern matches.
func (filter *Filter) ShouldSkip(name string, relativePath string) bool {
	if !filter.includeHidden && strings.HasPrefix(name, HiddenEntryPrefix) {
		return true
	}
	if len(filter.namePatterns) > 0 {
		return matchesAny(filter.namePatterns, name)
	}
	if len(filter.pathPatterns) > 0 {
		return matchesAny(filter.pathPatterns, normalizeSeparators(relativePath))
	}
	return false
}

func compilePatterns(sources []string, ignoreCase bool, isPathPattern bool) ([]Pattern, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	patterns := make([]Pattern, 0, len(sources))
	for _, source := range sources {
		if isPathPattern {
			source = normalizeSeparators(source)
		}
		pattern, compileError := CompilePattern(source, ignoreCase)
		if compileError != nil {
			return nil, compileError
		}
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func matchesAny(patterns []Pattern, subject string) bool {
	for _, pattern := range patterns {
		if pattern.Match(subject) {
			return true
		}
	}
	return false
}

func normalizeSeparators(value string) string {
	return strings.ReplaceAll(value, windowsSeparator, pathSegmentSeparator)
}
