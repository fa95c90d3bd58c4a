package tree_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/treetext/internal/fsys"
	"github.com/temirov/treetext/internal/tree"
)

const memoryRoot = "/scan/root"

// deniedFs refuses to open the listed directories.
type deniedFs struct {
	afero.Fs
	deniedPaths map[string]struct{}
}

func (fileSystem deniedFs) Open(name string) (afero.File, error) {
	if _, denied := fileSystem.deniedPaths[filepath.Clean(name)]; denied {
		return nil, &os.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	return fileSystem.Fs.Open(name)
}

// failingLister returns an error that is not a directory access failure.
type failingLister struct {
	fsys.Lister
	err error
}

func (lister failingLister) ListEntries(string) ([]fsys.Entry, error) {
	return nil, lister.err
}

// buildMemoryTree creates entries under memoryRoot; names ending in "/" are directories.
func buildMemoryTree(t *testing.T, entries ...string) afero.Fs {
	t.Helper()
	memoryFs := afero.NewMemMapFs()
	if err := memoryFs.MkdirAll(memoryRoot, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}
	for _, entry := range entries {
		fullPath := filepath.Join(memoryRoot, filepath.FromSlash(entry))
		if strings.HasSuffix(entry, "/") {
			if err := memoryFs.MkdirAll(fullPath, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", entry, err)
			}
			continue
		}
		if err := memoryFs.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir parent of %s: %v", entry, err)
		}
		if err := afero.WriteFile(memoryFs, fullPath, []byte(entry), 0o644); err != nil {
			t.Fatalf("write %s: %v", entry, err)
		}
	}
	return memoryFs
}

func renderMemory(t *testing.T, fileSystem afero.Fs, configuration tree.Configuration) []string {
	t.Helper()
	if configuration.Root == "" {
		configuration.Root = memoryRoot
	}
	walker := tree.NewWalker(fsys.NewLister(fileSystem), nil)
	lines, err := walker.Render(context.Background(), configuration)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	return lines
}

func assertLines(t *testing.T, actual []string, expected []string) {
	t.Helper()
	if strings.Join(actual, "\n") != strings.Join(expected, "\n") {
		t.Fatalf("unexpected tree\n--- got ---\n%s\n--- want ---\n%s", strings.Join(actual, "\n"), strings.Join(expected, "\n"))
	}
}

func TestRenderBasicScenario(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		configuration tree.Configuration
		expected      []string
	}{
		{
			name:          "hidden entries excluded by default",
			configuration: tree.Configuration{},
			expected: []string{
				"root",
				"├── a",
				"└── b.txt",
			},
		},
		{
			name:          "hidden entries sort first when included",
			configuration: tree.Configuration{IncludeHidden: true},
			expected: []string{
				"root",
				"├── .hidden",
				"├── a",
				"└── b.txt",
			},
		},
		{
			name:          "name pattern excludes text file",
			configuration: tree.Configuration{NamePatterns: []string{"*.txt"}},
			expected: []string{
				"root",
				"└── a",
			},
		},
		{
			name: "name pattern ignores path patterns",
			configuration: tree.Configuration{
				NamePatterns: []string{"*.txt"},
				PathPatterns: []string{"a"},
			},
			expected: []string{
				"root",
				"└── a",
			},
		},
		{
			name:          "path pattern applies without name patterns",
			configuration: tree.Configuration{PathPatterns: []string{"a"}},
			expected: []string{
				"root",
				"└── b.txt",
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			workspace := t.TempDir()
			root := filepath.Join(workspace, "root")
			if err := os.MkdirAll(filepath.Join(root, "a"), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			for _, name := range []string{"b.txt", ".hidden"} {
				if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0o600); err != nil {
					t.Fatalf("write %s: %v", name, err)
				}
			}

			configuration := testCase.configuration
			configuration.Root = root
			lines, err := tree.NewWalker(nil, nil).Render(context.Background(), configuration)
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}
			assertLines(t, lines, testCase.expected)
		})
	}
}

func TestRenderFlatDirectoryListsEverySortedEntry(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "zeta.md", "Alpha.txt", "beta.go", "_under", "10.txt", "2.txt")
	lines := renderMemory(t, fileSystem, tree.Configuration{})

	assertLines(t, lines, []string{
		"root",
		"├── 10.txt",
		"├── 2.txt",
		"├── Alpha.txt",
		"├── _under",
		"├── beta.go",
		"└── zeta.md",
	})
}

func TestRenderCompoundsPrefixes(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t,
		"a/x/deep.txt",
		"a/y.txt",
		"b/z.txt",
		"c.txt",
		"d/q/r.txt",
		"e/",
	)
	lines := renderMemory(t, fileSystem, tree.Configuration{})

	assertLines(t, lines, []string{
		"root",
		"├── a",
		"│   ├── x",
		"│   │   └── deep.txt",
		"│   └── y.txt",
		"├── b",
		"│   └── z.txt",
		"├── c.txt",
		"├── d",
		"│   └── q",
		"│       └── r.txt",
		"└── e",
	})
}

func TestRenderHonorsMaxDepth(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "a/x/deep.txt", "a/y.txt", "b.txt")

	testCases := []struct {
		name     string
		maxDepth *int
		expected []string
	}{
		{
			name:     "zero renders only the root",
			maxDepth: tree.DepthLimit(0),
			expected: []string{"root"},
		},
		{
			name:     "one renders direct children",
			maxDepth: tree.DepthLimit(1),
			expected: []string{"root", "├── a", "└── b.txt"},
		},
		{
			name:     "two renders grandchildren",
			maxDepth: tree.DepthLimit(2),
			expected: []string{"root", "├── a", "│   ├── x", "│   └── y.txt", "└── b.txt"},
		},
		{
			name:     "unlimited renders everything",
			maxDepth: nil,
			expected: []string{"root", "├── a", "│   ├── x", "│   │   └── deep.txt", "│   └── y.txt", "└── b.txt"},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			lines := renderMemory(t, fileSystem, tree.Configuration{MaxDepth: testCase.maxDepth})
			assertLines(t, lines, testCase.expected)
		})
	}
}

func TestRenderPathPatternsMatchRelativePaths(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "build/obj/a.o", "build/app", "src/build/keep.go", "main.go")
	lines := renderMemory(t, fileSystem, tree.Configuration{PathPatterns: []string{"build/*"}})

	assertLines(t, lines, []string{
		"root",
		"├── build",
		"├── main.go",
		"└── src",
		"    └── build",
		"        └── keep.go",
	})
}

func TestRenderHiddenDirectoriesAreNotDescended(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, ".git/HEAD", "src/.cache/blob", "src/main.go")
	lines := renderMemory(t, fileSystem, tree.Configuration{})

	assertLines(t, lines, []string{
		"root",
		"└── src",
		"    └── main.go",
	})
}

func TestRenderReportsUnreadableDirectoryInline(t *testing.T) {
	t.Parallel()

	memoryFs := buildMemoryTree(t, "a/y.txt", "b/secret.txt", "b2/inner/z.txt", "c.txt")
	fileSystem := deniedFs{
		Fs: memoryFs,
		deniedPaths: map[string]struct{}{
			filepath.Join(memoryRoot, "b"):           {},
			filepath.Join(memoryRoot, "b2", "inner"): {},
		},
	}
	core, logs := observer.New(zapcore.WarnLevel)
	walker := tree.NewWalker(fsys.NewLister(fileSystem), zap.New(core))

	lines, err := walker.Render(context.Background(), tree.Configuration{Root: memoryRoot})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	assertLines(t, lines, []string{
		"root",
		"├── a",
		"│   └── y.txt",
		"├── b",
		"│   [error opening directory: open /scan/root/b: permission denied]",
		"├── b2",
		"│   └── inner",
		"│       [error opening directory: open /scan/root/b2/inner: permission denied]",
		"└── c.txt",
	})

	if logs.Len() != 2 {
		t.Fatalf("expected 2 warnings, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["path"] != filepath.Join(memoryRoot, "b") {
		t.Fatalf("unexpected logged path: %v", entry.ContextMap())
	}
}

func TestWalkReportsLineMetadata(t *testing.T) {
	t.Parallel()

	fileSystem := deniedFs{
		Fs:          buildMemoryTree(t, "dir/file.txt", "locked/", "top.txt"),
		deniedPaths: map[string]struct{}{filepath.Join(memoryRoot, "locked"): {}},
	}
	walker := tree.NewWalker(fsys.NewLister(fileSystem), nil)

	var lines []tree.Line
	err := walker.Walk(context.Background(), tree.Configuration{Root: memoryRoot}, func(line tree.Line) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}

	expected := []tree.Line{
		{Kind: tree.LineKindRoot, Text: "root", Name: "root", Depth: 0, IsDir: true, IsLast: true},
		{Kind: tree.LineKindEntry, Text: "├── dir", Name: "dir", RelativePath: "dir", Depth: 1, IsDir: true},
		{Kind: tree.LineKindEntry, Text: "│   └── file.txt", Name: "file.txt", RelativePath: "dir/file.txt", Depth: 2, IsLast: true},
		{Kind: tree.LineKindEntry, Text: "├── locked", Name: "locked", RelativePath: "locked", Depth: 1, IsDir: true},
		{Kind: tree.LineKindError, Text: "│   [error opening directory: open /scan/root/locked: permission denied]", RelativePath: "locked", Depth: 2},
		{Kind: tree.LineKindEntry, Text: "└── top.txt", Name: "top.txt", RelativePath: "top.txt", Depth: 1, IsLast: true},
	}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d: %+v", len(expected), len(lines), lines)
	}
	for index, line := range lines {
		if line != expected[index] {
			t.Fatalf("line %d mismatch:\n got %+v\nwant %+v", index, line, expected[index])
		}
		if line.String() != line.Text {
			t.Fatalf("String() should return Text")
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "a/b/c.txt", "a/d.txt", "e/", "f.txt", ".g")
	configuration := tree.Configuration{IncludeHidden: true}

	first := renderMemory(t, fileSystem, configuration)
	second := renderMemory(t, fileSystem, configuration)
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Fatalf("renders differ:\n%s\n---\n%s", strings.Join(first, "\n"), strings.Join(second, "\n"))
	}
}

func TestWalkRejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "file.txt")

	testCases := []struct {
		name          string
		configuration tree.Configuration
	}{
		{name: "negative depth", configuration: tree.Configuration{Root: memoryRoot, MaxDepth: tree.DepthLimit(-1)}},
		{name: "empty root", configuration: tree.Configuration{}},
		{name: "root is a file", configuration: tree.Configuration{Root: filepath.Join(memoryRoot, "file.txt")}},
		{name: "root is missing", configuration: tree.Configuration{Root: filepath.Join(memoryRoot, "absent")}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			walker := tree.NewWalker(fsys.NewLister(fileSystem), nil)
			handled := 0
			err := walker.Walk(context.Background(), testCase.configuration, func(tree.Line) error {
				handled++
				return nil
			})
			if !errors.Is(err, tree.ErrInvalidConfiguration) {
				t.Fatalf("expected invalid configuration error, got %v", err)
			}
			var configurationError *tree.InvalidConfigurationError
			if !errors.As(err, &configurationError) {
				t.Fatalf("expected InvalidConfigurationError, got %T", err)
			}
			if handled != 0 {
				t.Fatalf("expected no output before the error, got %d lines", handled)
			}
		})
	}
}

func TestRenderDropsReversedRangesInPatterns(t *testing.T) {
	t.Parallel()

	fileSystem := buildMemoryTree(t, "a.txt", "b.txt", "m.txt")
	testCases := []struct {
		name          string
		configuration tree.Configuration
		expected      []string
	}{
		{
			name:          "reversed range alone matches nothing",
			configuration: tree.Configuration{NamePatterns: []string{"[z-a].txt"}},
			expected:      []string{"root", "├── a.txt", "├── b.txt", "└── m.txt"},
		},
		{
			name:          "remaining members still match",
			configuration: tree.Configuration{NamePatterns: []string{"[z-ab].txt"}},
			expected:      []string{"root", "├── a.txt", "└── m.txt"},
		},
		{
			name:          "negated empty class matches any character",
			configuration: tree.Configuration{PathPatterns: []string{"[!z-a].txt"}},
			expected:      []string{"root"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assertLines(t, renderMemory(t, fileSystem, testCase.configuration), testCase.expected)
		})
	}
}

func TestWalkPropagatesUnexpectedListingFaults(t *testing.T) {
	t.Parallel()

	fault := errors.New("device on fire")
	lister := failingLister{Lister: fsys.NewLister(buildMemoryTree(t, "a.txt")), err: fault}
	walker := tree.NewWalker(lister, nil)

	var lines []string
	err := walker.Walk(context.Background(), tree.Configuration{Root: memoryRoot}, func(line tree.Line) error {
		lines = append(lines, line.Text)
		return nil
	})
	if !errors.Is(err, fault) {
		t.Fatalf("expected fault to propagate, got %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected only the root line before the fault, got %v", lines)
	}
}

func TestWalkStopsOnHandlerError(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t, "a/", "b/", "c/")), nil)

	handled := 0
	err := walker.Walk(context.Background(), tree.Configuration{Root: memoryRoot}, func(tree.Line) error {
		handled++
		if handled == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if handled != 2 {
		t.Fatalf("expected walk to stop after 2 lines, got %d", handled)
	}
}

func TestWalkHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t, "a.txt")), nil)
	_, err := walker.Render(ctx, tree.Configuration{Root: memoryRoot})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWalkRequiresHandler(t *testing.T) {
	t.Parallel()

	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t)), nil)
	if err := walker.Walk(context.Background(), tree.Configuration{Root: memoryRoot}, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestLinesIsLazyAndRestartable(t *testing.T) {
	t.Parallel()

	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t, "a.txt", "b.txt", "c.txt")), nil)
	configuration := tree.Configuration{Root: memoryRoot}

	var firstTwo []string
	for line, err := range walker.Lines(context.Background(), configuration) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		firstTwo = append(firstTwo, line.Text)
		if len(firstTwo) == 2 {
			break
		}
	}
	assertLines(t, firstTwo, []string{"root", "├── a.txt"})

	var all []string
	for line, err := range walker.Lines(context.Background(), configuration) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		all = append(all, line.Text)
	}
	assertLines(t, all, []string{"root", "├── a.txt", "├── b.txt", "└── c.txt"})
}

func TestLinesYieldsConfigurationErrors(t *testing.T) {
	t.Parallel()

	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t)), nil)
	var received []error
	for line, err := range walker.Lines(context.Background(), tree.Configuration{Root: memoryRoot, MaxDepth: tree.DepthLimit(-2)}) {
		if err == nil {
			t.Fatalf("unexpected line %q", line.Text)
		}
		received = append(received, err)
	}
	if len(received) != 1 || !errors.Is(received[0], tree.ErrInvalidConfiguration) {
		t.Fatalf("expected one configuration error, got %v", received)
	}
}

func TestRenderFilesystemRootUsesFullPath(t *testing.T) {
	t.Parallel()

	walker := tree.NewWalker(fsys.NewLister(buildMemoryTree(t)), nil)
	lines, err := walker.Render(context.Background(), tree.Configuration{Root: "/", MaxDepth: tree.DepthLimit(0)})
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	assertLines(t, lines, []string{"/"})
}
