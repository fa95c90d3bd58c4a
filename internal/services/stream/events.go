package stream

import (
	"encoding/xml"
	"time"
)

const SchemaVersion = 1

// CommandTree names the command that produced tree events.
const CommandTree = "tree"

type EventKind string

const (
	EventKindStart   EventKind = "start"
	EventKindLine    EventKind = "line"
	EventKindWarning EventKind = "warning"
	EventKindSummary EventKind = "summary"
	EventKindError   EventKind = "error"
	EventKindDone    EventKind = "done"
)

type Event struct {
	XMLName   xml.Name  `json:"-" xml:"event"`
	Version   int       `json:"version" xml:"version,attr"`
	Kind      EventKind `json:"kind" xml:"kind,attr"`
	Command   string    `json:"command,omitempty" xml:"command,attr,omitempty"`
	Path      string    `json:"path,omitempty" xml:"path,attr,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty" xml:"emittedAt,attr,omitempty"`

	Line    *LineEvent    `json:"line,omitempty" xml:"line,omitempty"`
	Summary *SummaryEvent `json:"summary,omitempty" xml:"summary,omitempty"`
	Message *LogEvent     `json:"message,omitempty" xml:"message,omitempty"`
	Err     *ErrorEvent   `json:"error,omitempty" xml:"error,omitempty"`
}

// LineEvent carries one rendered tree line and where it came from.
type LineEvent struct {
	Kind   string `json:"kind" xml:"kind,attr"`
	Text   string `json:"text" xml:"text,attr"`
	Name   string `json:"name,omitempty" xml:"name,attr,omitempty"`
	Path   string `json:"path,omitempty" xml:"path,attr,omitempty"`
	Depth  int    `json:"depth" xml:"depth,attr"`
	IsDir  bool   `json:"isDir" xml:"isDir,attr"`
	IsLast bool   `json:"isLast" xml:"isLast,attr"`
}

// SummaryEvent counts the entries shown below the root.
type SummaryEvent struct {
	Directories int `json:"directories" xml:"directories,attr"`
	Files       int `json:"files" xml:"files,attr"`
	Errors      int `json:"errors" xml:"errors,attr"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty" xml:"level,attr,omitempty"`
	Message string `json:"message" xml:",chardata"`
}

type ErrorEvent struct {
	Message string `json:"message" xml:",chardata"`
}
