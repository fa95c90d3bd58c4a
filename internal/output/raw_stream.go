package output

import (
	"fmt"
	"io"

	"github.com/temirov/treetext/internal/services/stream"
	"github.com/temirov/treetext/internal/utils"
)

const (
	lineSeparator = "\n"
	summaryFormat = "%d %s, %d %s"
)

type rawStreamRenderer struct {
	stdout          io.Writer
	stderr          io.Writer
	includeSummary  bool
	terminateOutput bool
	linesWritten    int
	summary         *stream.SummaryEvent
}

// NewRawStreamRenderer writes line text as it arrives. Warnings are not
// repeated because unreadable directories already appear inline.
func NewRawStreamRenderer(stdout, stderr io.Writer, includeSummary bool, terminateOutput bool) StreamRenderer {
	return &rawStreamRenderer{
		stdout:          stdout,
		stderr:          stderr,
		includeSummary:  includeSummary,
		terminateOutput: terminateOutput,
	}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		return writeDiagnostic(renderer.stderr, event)
	case stream.EventKindLine:
		if event.Line == nil {
			return nil
		}
		return renderer.writeLine(event.Line.Text)
	case stream.EventKindSummary:
		renderer.summary = event.Summary
	}
	return nil
}

func (renderer *rawStreamRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	if renderer.includeSummary && renderer.summary != nil && renderer.linesWritten > 0 {
		if err := renderer.writeLine(""); err != nil {
			return err
		}
		if err := renderer.writeLine(FormatSummaryLine(renderer.summary)); err != nil {
			return err
		}
	}
	if renderer.terminateOutput && renderer.linesWritten > 0 {
		if _, err := io.WriteString(renderer.stdout, lineSeparator); err != nil {
			return err
		}
	}
	return nil
}

func (renderer *rawStreamRenderer) writeLine(text string) error {
	if renderer.stdout == nil {
		return nil
	}
	if renderer.linesWritten > 0 {
		if _, err := io.WriteString(renderer.stdout, lineSeparator); err != nil {
			return err
		}
	}
	renderer.linesWritten++
	_, err := io.WriteString(renderer.stdout, text)
	return err
}

// FormatSummaryLine renders counts as "N directories, M files".
func FormatSummaryLine(summary *stream.SummaryEvent) string {
	if summary == nil {
		return ""
	}
	return fmt.Sprintf(
		summaryFormat,
		summary.Directories,
		utils.Pluralize(summary.Directories, "directory", "directories"),
		summary.Files,
		utils.Pluralize(summary.Files, "file", "files"),
	)
}
