package utils_test

import (
	"runtime/debug"
	"strings"
	"testing"

	"github.com/temirov/treetext/internal/utils"
)

// TestDeduplicatePatterns verifies that DeduplicatePatterns removes duplicate patterns.
func TestDeduplicatePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "removes duplicates",
			patterns: []string{"a", "b", "a"},
			expected: []string{"a", "b"},
		},
		{
			testName: "keeps unique",
			patterns: []string{"a", "b"},
			expected: []string{"a", "b"},
		},
	}
	for index, testCase := range testCases {
		actual := utils.DeduplicatePatterns(testCase.patterns)
		if strings.Join(actual, ",") != strings.Join(testCase.expected, ",") {
			testingInstance.Errorf("case %d (%s): expected %v, got %v", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestNormalizePatterns verifies dropping of empty values, whitespace preservation and ordering.
func TestNormalizePatterns(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		patterns []string
		expected []string
	}{
		{
			testName: "keeps surrounding whitespace",
			patterns: []string{" *.log", "*.log ", "*.log", "build", "build"},
			expected: []string{" *.log", "*.log ", "*.log", "build"},
		},
		{
			testName: "drops only empty values",
			patterns: []string{"", "  ", "node_modules"},
			expected: []string{"  ", "node_modules"},
		},
		{
			testName: "empty input yields nil",
			patterns: []string{""},
			expected: nil,
		},
	}
	for index, testCase := range testCases {
		actual := utils.NormalizePatterns(testCase.patterns)
		if testCase.expected == nil && actual != nil {
			testingInstance.Errorf("case %d (%s): expected nil, got %v", index, testCase.testName, actual)
			continue
		}
		if strings.Join(actual, ",") != strings.Join(testCase.expected, ",") {
			testingInstance.Errorf("case %d (%s): expected %v, got %v", index, testCase.testName, testCase.expected, actual)
		}
	}
}

// TestMergePatterns verifies that merged pattern sets keep first-seen order.
func TestMergePatterns(testingInstance *testing.T) {
	actual := utils.MergePatterns([]string{"a", "b"}, []string{"b", "c"}, []string{"a", "d"})
	if strings.Join(actual, ",") != "a,b,c,d" {
		testingInstance.Fatalf("unexpected merge result: %v", actual)
	}
	if spaced := utils.MergePatterns(nil, []string{"* ", " ", ""}); strings.Join(spaced, "|") != "* | " {
		testingInstance.Fatalf("expected whitespace patterns to survive merge, got %q", spaced)
	}
	if merged := utils.MergePatterns(nil); merged != nil {
		testingInstance.Fatalf("expected nil for empty merge, got %v", merged)
	}
}

// TestContainsString verifies that ContainsString locates strings in a slice.
func TestContainsString(testingInstance *testing.T) {
	if !utils.ContainsString([]string{"alpha", "beta"}, "beta") {
		testingInstance.Errorf("expected beta to be found")
	}
	if utils.ContainsString([]string{"alpha", "beta"}, "gamma") {
		testingInstance.Errorf("did not expect gamma to be found")
	}
}

// TestPluralize verifies the count-dependent label.
func TestPluralize(testingInstance *testing.T) {
	testCases := map[int]string{0: "files", 1: "file", 2: "files"}
	for count, expected := range testCases {
		if actual := utils.Pluralize(count, "file", "files"); actual != expected {
			testingInstance.Errorf("Pluralize(%d) = %s, want %s", count, actual, expected)
		}
	}
}

func TestRevisionFromSettings(t *testing.T) {
	testCases := []struct {
		name     string
		settings []debug.BuildSetting
		expected string
	}{
		{name: "no revision", settings: nil, expected: ""},
		{
			name:     "short revision",
			settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
			expected: "0123456",
		},
		{
			name: "dirty revision",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			expected: "abc-dirty",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := utils.RevisionFromSettings(testCase.settings); actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, actual)
			}
		})
	}
}

func TestNewApplicationLogger(t *testing.T) {
	logger, err := utils.NewApplicationLogger()
	if err != nil {
		t.Fatalf("NewApplicationLogger error: %v", err)
	}
	if logger == nil {
		t.Fatalf("expected logger instance")
	}
}
