package output

import (
	"encoding/xml"
	"io"

	"github.com/temirov/treetext/internal/services/stream"
)

const (
	xmlTreeElement    = "tree"
	xmlLineElement    = "line"
	xmlSummaryElement = "summary"
	xmlRootAttribute  = "root"
)

type xmlStreamRenderer struct {
	stdout   io.Writer
	stderr   io.Writer
	encoder  *xml.Encoder
	treeOpen xml.StartElement
	started  bool
	finished bool
	summary  *stream.SummaryEvent
}

func NewXMLStreamRenderer(stdout, stderr io.Writer) StreamRenderer {
	return &xmlStreamRenderer{stdout: stdout, stderr: stderr}
}

func (renderer *xmlStreamRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindError:
		return writeDiagnostic(renderer.stderr, event)
	case stream.EventKindStart:
		return renderer.begin(event.Path)
	case stream.EventKindLine:
		if event.Line == nil || renderer.stdout == nil {
			return nil
		}
		if err := renderer.begin(""); err != nil {
			return err
		}
		if err := renderer.encoder.EncodeElement(event.Line, xml.StartElement{Name: xml.Name{Local: xmlLineElement}}); err != nil {
			return err
		}
		return renderer.encoder.Flush()
	case stream.EventKindSummary:
		renderer.summary = event.Summary
	}
	return nil
}

func (renderer *xmlStreamRenderer) Flush() error {
	if !renderer.started || renderer.finished {
		return nil
	}
	renderer.finished = true
	if renderer.summary != nil {
		if err := renderer.encoder.EncodeElement(renderer.summary, xml.StartElement{Name: xml.Name{Local: xmlSummaryElement}}); err != nil {
			return err
		}
	}
	if err := renderer.encoder.EncodeToken(renderer.treeOpen.End()); err != nil {
		return err
	}
	if err := renderer.encoder.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(renderer.stdout, "\n")
	return err
}

func (renderer *xmlStreamRenderer) begin(root string) error {
	if renderer.stdout == nil || renderer.started {
		return nil
	}
	if _, err := io.WriteString(renderer.stdout, xml.Header); err != nil {
		return err
	}
	renderer.encoder = xml.NewEncoder(renderer.stdout)
	renderer.encoder.Indent(indentPrefix, indentSpacer)
	renderer.treeOpen = xml.StartElement{Name: xml.Name{Local: xmlTreeElement}}
	if root != "" {
		renderer.treeOpen.Attr = append(renderer.treeOpen.Attr, xml.Attr{Name: xml.Name{Local: xmlRootAttribute}, Value: root})
	}
	if err := renderer.encoder.EncodeToken(renderer.treeOpen); err != nil {
		return err
	}
	renderer.started = true
	return renderer.encoder.Flush()
}
