// Package output renders tree events as text, JSON or XML.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/treetext/internal/services/stream"
)

const (
	// FormatRaw prints the tree lines as plain text.
	FormatRaw = "raw"
	// FormatJSON prints a single JSON document.
	FormatJSON = "json"
	// FormatXML prints a single XML document.
	FormatXML = "xml"

	indentPrefix = ""
	indentSpacer = "  "
)

type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
}

// RendererOptions selects and configures a StreamRenderer.
type RendererOptions struct {
	Format         string
	IncludeSummary bool
	// TerminateOutput ends raw output with a newline. Without it raw output is
	// the lines joined by newlines, as written to files.
	TerminateOutput bool
}

// NormalizeFormat lowercases a format name and rejects unknown ones. An empty
// name selects FormatRaw.
func NormalizeFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		return FormatRaw, nil
	case FormatRaw, FormatJSON, FormatXML:
		return normalized, nil
	default:
		return "", fmt.Errorf("invalid format value '%s'", format)
	}
}

// NewStreamRenderer builds the renderer for options.Format.
func NewStreamRenderer(stdout, stderr io.Writer, options RendererOptions) (StreamRenderer, error) {
	format, err := NormalizeFormat(options.Format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON:
		return NewJSONStreamRenderer(stdout, stderr), nil
	case FormatXML:
		return NewXMLStreamRenderer(stdout, stderr), nil
	default:
		return NewRawStreamRenderer(stdout, stderr, options.IncludeSummary, options.TerminateOutput), nil
	}
}

func writeDiagnostic(stderr io.Writer, event stream.Event) error {
	if stderr == nil || event.Kind != stream.EventKindError || event.Err == nil {
		return nil
	}
	_, err := fmt.Fprintln(stderr, event.Err.Message)
	return err
}
