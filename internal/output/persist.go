package output

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

const outputFilePermissions = 0o644

// JoinLines joins rendered lines with newlines and no trailing newline.
func JoinLines(lines []string) string {
	return strings.Join(lines, lineSeparator)
}

// WriteFile writes content to path, replacing any existing file. A nil
// fileSystem writes to the operating system.
func WriteFile(fileSystem afero.Fs, path string, content []byte) error {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if err := afero.WriteFile(fileSystem, path, content, outputFilePermissions); err != nil {
		return fmt.Errorf("write output file %s: %w", path, err)
	}
	return nil
}
