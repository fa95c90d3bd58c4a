package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/treetext/internal/services/stream"
)

// jsonStreamRenderer writes {"root": ..., "lines": [...], "summary": {...}}
// incrementally, one line object per event.
type jsonStreamRenderer struct {
	stdout      io.Writer
	stderr      io.Writer
	started     bool
	lineCount   int
	summary     *stream.SummaryEvent
	documentEnd bool
}

func NewJSONStreamRenderer(stdout, stderr io.Writer) StreamRenderer {
	return &jsonStreamRenderer{stdout: stdout, stderr: stderr}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		return writeDiagnostic(renderer.stderr, event)
	case stream.EventKindStart:
		return renderer.begin(event.Path)
	case stream.EventKindLine:
		if event.Line == nil {
			return nil
		}
		return renderer.writeLine(event.Line)
	case stream.EventKindSummary:
		renderer.summary = event.Summary
	}
	return nil
}

func (renderer *jsonStreamRenderer) Flush() error {
	if renderer.stdout == nil || !renderer.started || renderer.documentEnd {
		return nil
	}
	renderer.documentEnd = true
	closing := "]"
	if renderer.lineCount > 0 {
		closing = "\n" + indentSpacer + "]"
	}
	if _, err := io.WriteString(renderer.stdout, closing); err != nil {
		return err
	}
	if renderer.summary != nil {
		encoded, err := json.Marshal(renderer.summary)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(renderer.stdout, ",\n%s\"summary\": %s", indentSpacer, encoded); err != nil {
			return err
		}
	}
	_, err := io.WriteString(renderer.stdout, "\n}\n")
	return err
}

func (renderer *jsonStreamRenderer) begin(root string) error {
	if renderer.stdout == nil || renderer.started {
		return nil
	}
	renderer.started = true
	_, err := fmt.Fprintf(renderer.stdout, "{\n%s\"root\": %s,\n%s\"lines\": [", indentSpacer, encodeJSONString(root), indentSpacer)
	return err
}

func (renderer *jsonStreamRenderer) writeLine(line *stream.LineEvent) error {
	if renderer.stdout == nil {
		return nil
	}
	if !renderer.started {
		if err := renderer.begin(""); err != nil {
			return err
		}
	}
	encoded, err := json.Marshal(line)
	if err != nil {
		return err
	}
	separator := ","
	if renderer.lineCount == 0 {
		separator = ""
	}
	renderer.lineCount++
	_, err = fmt.Fprintf(renderer.stdout, "%s\n%s%s%s", separator, indentSpacer, indentSpacer, encoded)
	return err
}

func encodeJSONString(value string) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "\"\""
	}
	return string(encoded)
}
