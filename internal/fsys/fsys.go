// Package fsys lists directory entries for the tree walker on top of an afero filesystem.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorStatFormat is used when an entry cannot be inspected.
	errorStatFormat = "stat %s: %w"
)

// Entry is a single name inside a listed directory.
type Entry struct {
	Name        string
	IsDirectory bool
}

// Lister is the filesystem capability consumed by the tree walker.
type Lister interface {
	// ListEntries returns the immediate entries of directoryPath in no particular order.
	// Failures are reported as *DirectoryAccessError.
	ListEntries(directoryPath string) ([]Entry, error)
	// IsDirectory reports whether path exists and is a directory.
	IsDirectory(path string) (bool, error)
	// Abs resolves path against the working directory.
	Abs(path string) (string, error)
}

// DirectoryAccessError reports a directory that could not be listed.
type DirectoryAccessError struct {
	Path string
	Err  error
}

// Error returns the message of the underlying failure.
func (accessError *DirectoryAccessError) Error() string {
	if accessError.Err == nil {
		return fmt.Sprintf("cannot list %s", accessError.Path)
	}
	return accessError.Err.Error()
}

// Unwrap exposes the underlying failure.
func (accessError *DirectoryAccessError) Unwrap() error {
	return accessError.Err
}

// AferoLister implements Lister using an afero.Fs.
type AferoLister struct {
	fileSystem afero.Fs
}

// NewLister wraps fileSystem. A nil fileSystem selects the operating system filesystem.
func NewLister(fileSystem afero.Fs) *AferoLister {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &AferoLister{fileSystem: fileSystem}
}

// NewOSLister lists the operating system filesystem.
func NewOSLister() *AferoLister {
	return NewLister(afero.NewOsFs())
}

// ListEntries reads directoryPath. Symbolic links are reported as directories
// when their target is a directory.
func (lister *AferoLister) ListEntries(directoryPath string) ([]Entry, error) {
	fileInfos, readError := afero.ReadDir(lister.fileSystem, directoryPath)
	if readError != nil {
		return nil, &DirectoryAccessError{Path: directoryPath, Err: readError}
	}

	entries := make([]Entry, 0, len(fileInfos))
	for _, fileInfo := range fileInfos {
		entry := Entry{Name: fileInfo.Name(), IsDirectory: fileInfo.IsDir()}
		if fileInfo.Mode()&os.ModeSymlink != 0 {
			targetInfo, statError := lister.fileSystem.Stat(filepath.Join(directoryPath, fileInfo.Name()))
			entry.IsDirectory = statError == nil && targetInfo.IsDir()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// IsDirectory stats path, following symbolic links.
func (lister *AferoLister) IsDirectory(path string) (bool, error) {
	fileInfo, statError := lister.fileSystem.Stat(path)
	if statError != nil {
		return false, fmt.Errorf(errorStatFormat, path, statError)
	}
	return fileInfo.IsDir(), nil
}

// Abs returns the cleaned absolute form of path.
func (lister *AferoLister) Abs(path string) (string, error) {
	absolutePath, absoluteError := filepath.Abs(path)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, path, absoluteError)
	}
	return absolutePath, nil
}

var _ Lister = (*AferoLister)(nil)
