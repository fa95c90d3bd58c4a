package tree

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/temirov/treetext/internal/filter"
	"github.com/temirov/treetext/internal/fsys"
)

// ErrInvalidConfiguration is matched by every InvalidConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid tree configuration")

const (
	fieldRoot     = "root"
	fieldMaxDepth = "max depth"

	reasonEmptyRoot      = "root path is empty"
	reasonNotDirectory   = "path is not a directory"
	reasonNegativeDepth  = "must not be negative"
	reasonUnreadableRoot = "cannot inspect root"

	invalidConfigurationFormat        = "%s: %s %q: %s"
	invalidConfigurationWrappedFormat = "%s: %s %q: %s: %v"
)

// Configuration controls one tree rendering. It is treated as immutable.
type Configuration struct {
	Root          string
	IncludeHidden bool
	// MaxDepth limits recursion; the root's direct children are at depth 1.
	// Nil means unlimited and zero renders only the root line.
	MaxDepth     *int
	NamePatterns []string
	PathPatterns []string
	IgnoreCase   bool
}

// DepthLimit returns a MaxDepth value.
func DepthLimit(depth int) *int {
	return &depth
}

// InvalidConfigurationError reports a configuration that cannot start a traversal.
type InvalidConfigurationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

// Error describes the rejected field.
func (configurationError *InvalidConfigurationError) Error() string {
	if configurationError.Err != nil {
		return fmt.Sprintf(invalidConfigurationWrappedFormat, ErrInvalidConfiguration, configurationError.Field, configurationError.Value, configurationError.Reason, configurationError.Err)
	}
	return fmt.Sprintf(invalidConfigurationFormat, ErrInvalidConfiguration, configurationError.Field, configurationError.Value, configurationError.Reason)
}

// Is matches ErrInvalidConfiguration.
func (configurationError *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// Unwrap exposes the filesystem failure behind the rejection, if any.
func (configurationError *InvalidConfigurationError) Unwrap() error {
	return configurationError.Err
}

// FilterOptions returns the entry filter settings carried by the configuration.
func (configuration Configuration) FilterOptions() filter.Options {
	return filter.Options{
		IncludeHidden: configuration.IncludeHidden,
		NamePatterns:  configuration.NamePatterns,
		PathPatterns:  configuration.PathPatterns,
		IgnoreCase:    configuration.IgnoreCase,
	}
}

// resolveRoot validates the configuration and returns the absolute root path.
func (configuration Configuration) resolveRoot(lister fsys.Lister) (string, error) {
	if configuration.MaxDepth != nil && *configuration.MaxDepth < 0 {
		return "", &InvalidConfigurationError{
			Field:  fieldMaxDepth,
			Value:  strconv.Itoa(*configuration.MaxDepth),
			Reason: reasonNegativeDepth,
		}
	}
	if configuration.Root == "" {
		return "", &InvalidConfigurationError{Field: fieldRoot, Reason: reasonEmptyRoot}
	}

	absoluteRoot, absoluteError := lister.Abs(configuration.Root)
	if absoluteError != nil {
		return "", absoluteError
	}
	isDirectory, statError := lister.IsDirectory(absoluteRoot)
	if statError != nil {
		return "", &InvalidConfigurationError{
			Field:  fieldRoot,
			Value:  configuration.Root,
			Reason: reasonUnreadableRoot,
			Err:    statError,
		}
	}
	if !isDirectory {
		return "", &InvalidConfigurationError{
			Field:  fieldRoot,
			Value:  configuration.Root,
			Reason: reasonNotDirectory,
		}
	}
	return absoluteRoot, nil
}
