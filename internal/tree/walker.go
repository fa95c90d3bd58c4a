// Package tree renders a directory hierarchy as ASCII tree lines.
package tree

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/temirov/treetext/internal/filter"
	"github.com/temirov/treetext/internal/fsys"
)

const (
	relativePathSeparator = "/"

	errorNilHandler   = "tree: line handler is nil"
	errorFilterFormat = "building entry filter: %w"

	logMessageDirectoryUnreadable = "skipping unreadable directory"
	logFieldPath                  = "path"
)

// errStopIteration ends a walk when a range-over-func consumer breaks early.
var errStopIteration = errors.New("tree: iteration stopped")

// Walker renders trees from a filesystem Lister.
type Walker struct {
	lister fsys.Lister
	logger *zap.Logger
}

// NewWalker constructs a Walker. A nil lister selects the operating system
// filesystem and a nil logger discards log output.
func NewWalker(lister fsys.Lister, logger *zap.Logger) *Walker {
	if lister == nil {
		lister = fsys.NewOSLister()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{lister: lister, logger: logger}
}

type walkState struct {
	ctx         context.Context
	lister      fsys.Lister
	logger      *zap.Logger
	entryFilter *filter.Filter
	maxDepth    *int
	handler     func(Line) error
}

// Walk validates configuration and passes every line to handler in depth-first
// pre-order. Directories that cannot be listed produce a single error line and
// the walk continues with their siblings. A handler error, a context error, or
// any non-listing failure stops the walk and is returned.
func (walker *Walker) Walk(ctx context.Context, configuration Configuration, handler func(Line) error) error {
	if handler == nil {
		return errors.New(errorNilHandler)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	absoluteRoot, rootError := configuration.resolveRoot(walker.lister)
	if rootError != nil {
		return rootError
	}
	entryFilter, filterError := filter.New(configuration.FilterOptions())
	if filterError != nil {
		return fmt.Errorf(errorFilterFormat, filterError)
	}

	state := &walkState{
		ctx:         ctx,
		lister:      walker.lister,
		logger:      walker.logger,
		entryFilter: entryFilter,
		maxDepth:    configuration.MaxDepth,
		handler:     handler,
	}

	rootName := rootLabel(absoluteRoot)
	if err := state.emit(Line{Kind: LineKindRoot, Text: rootName, Name: rootName, IsDir: true, IsLast: true}); err != nil {
		return err
	}
	return state.visit(absoluteRoot, "", 1, "")
}

// Lines returns the rendering as a lazy sequence. Each iteration starts a fresh
// traversal. A failure is yielded once as the final element with a zero Line.
func (walker *Walker) Lines(ctx context.Context, configuration Configuration) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		walkError := walker.Walk(ctx, configuration, func(line Line) error {
			if !yield(line, nil) {
				return errStopIteration
			}
			return nil
		})
		if walkError != nil && !errors.Is(walkError, errStopIteration) {
			yield(Line{}, walkError)
		}
	}
}

// Render materializes the rendered text lines.
func (walker *Walker) Render(ctx context.Context, configuration Configuration) ([]string, error) {
	var lines []string
	walkError := walker.Walk(ctx, configuration, func(line Line) error {
		lines = append(lines, line.Text)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}
	return lines, nil
}

func (state *walkState) visit(directoryPath string, prefix string, depth int, relativePath string) error {
	if state.maxDepth != nil && depth > *state.maxDepth {
		return nil
	}
	if err := state.ctx.Err(); err != nil {
		return err
	}

	entries, listError := state.lister.ListEntries(directoryPath)
	if listError != nil {
		var accessError *fsys.DirectoryAccessError
		if !errors.As(listError, &accessError) {
			return listError
		}
		state.logger.Warn(logMessageDirectoryUnreadable, zap.String(logFieldPath, directoryPath), zap.Error(listError))
		return state.emit(Line{
			Kind:         LineKindError,
			Text:         fmt.Sprintf(directoryErrorFormat, prefix, accessError.Error()),
			RelativePath: relativePath,
			Depth:        depth,
		})
	}

	sort.SliceStable(entries, func(left, right int) bool {
		return entries[left].Name < entries[right].Name
	})

	visibleEntries := make([]fsys.Entry, 0, len(entries))
	for _, entry := range entries {
		if state.entryFilter.ShouldSkip(entry.Name, joinRelative(relativePath, entry.Name)) {
			continue
		}
		visibleEntries = append(visibleEntries, entry)
	}

	for index, entry := range visibleEntries {
		isLast := index == len(visibleEntries)-1
		childRelativePath := joinRelative(relativePath, entry.Name)
		if err := state.emit(Line{
			Kind:         LineKindEntry,
			Text:         prefix + connectorFor(isLast) + entry.Name,
			Name:         entry.Name,
			RelativePath: childRelativePath,
			Depth:        depth,
			IsDir:        entry.IsDirectory,
			IsLast:       isLast,
		}); err != nil {
			return err
		}
		if !entry.IsDirectory {
			continue
		}
		childPath := filepath.Join(directoryPath, entry.Name)
		if err := state.visit(childPath, prefix+paddingFor(isLast), depth+1, childRelativePath); err != nil {
			return err
		}
	}
	return nil
}

func (state *walkState) emit(line Line) error {
	if err := state.ctx.Err(); err != nil {
		return err
	}
	return state.handler(line)
}

func joinRelative(relativePath string, name string) string {
	if relativePath == "" {
		return name
	}
	return relativePath + relativePathSeparator + name
}

// rootLabel is the basename of the root, or the whole path for a filesystem root.
func rootLabel(absoluteRoot string) string {
	baseName := filepath.Base(absoluteRoot)
	if baseName == "" || baseName == "." || baseName == string(filepath.Separator) {
		return absoluteRoot
	}
	return baseName
}
