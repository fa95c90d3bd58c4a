// Package config loads treetext configuration files and exclusion pattern files.
package config

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/treetext/internal/utils"
)

const (
	commentPrefix = "#"
	// nameSectionHeader starts the section of patterns matched against entry names.
	nameSectionHeader = "[name]"
	// pathSectionHeader starts the section of patterns matched against relative paths.
	pathSectionHeader = "[path]"
)

// ExclusionPatterns holds the two pattern sets read from an exclusion file.
type ExclusionPatterns struct {
	NamePatterns []string
	PathPatterns []string
}

// LoadExclusionFile reads an exclusion file. Blank lines and lines starting
// with # are ignored. Patterns before any section header, or under [name],
// are name patterns; patterns under [path] are path patterns. A nil
// fileSystem reads from the operating system.
func LoadExclusionFile(fileSystem afero.Fs, exclusionFilePath string, logger *zap.Logger) (ExclusionPatterns, error) {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fileHandle, openFileError := fileSystem.Open(exclusionFilePath)
	if openFileError != nil {
		return ExclusionPatterns{}, fmt.Errorf("open exclusion file %s: %w", exclusionFilePath, openFileError)
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil {
			logger.Warn("failed to close exclusion file", zap.String("path", exclusionFilePath), zap.Error(closeError))
		}
	}()

	var patterns ExclusionPatterns
	currentSectionHeader := nameSectionHeader
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == utils.EmptyString || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		if strings.EqualFold(trimmedLine, nameSectionHeader) {
			currentSectionHeader = nameSectionHeader
			continue
		}
		if strings.EqualFold(trimmedLine, pathSectionHeader) {
			currentSectionHeader = pathSectionHeader
			continue
		}
		if currentSectionHeader == pathSectionHeader {
			patterns.PathPatterns = append(patterns.PathPatterns, trimmedLine)
			continue
		}
		patterns.NamePatterns = append(patterns.NamePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return ExclusionPatterns{}, fmt.Errorf("read exclusion file %s: %w", exclusionFilePath, scanError)
	}
	patterns.NamePatterns = utils.NormalizePatterns(patterns.NamePatterns)
	patterns.PathPatterns = utils.NormalizePatterns(patterns.PathPatterns)
	return patterns, nil
}
