package tree

const (
	branchConnector = "├── "
	lastConnector   = "└── "
	branchPadding   = "│   "
	lastPadding     = "    "

	directoryErrorFormat = "%s[error opening directory: %s]"
)

// LineKind classifies a rendered line.
type LineKind string

const (
	// LineKindRoot is the first line, naming the scan root.
	LineKindRoot LineKind = "root"
	// LineKindEntry is a file or directory inside the tree.
	LineKindEntry LineKind = "entry"
	// LineKindError replaces the contents of a directory that could not be listed.
	LineKindError LineKind = "error"
)

// Line is one rendered line plus the position it was produced from.
type Line struct {
	Kind LineKind
	// Text is the decorated line exactly as it appears in the output.
	Text string
	Name string
	// RelativePath is slash-joined from the root. For error lines it names the
	// directory that failed to list; it is empty for the root.
	RelativePath string
	Depth        int
	IsDir        bool
	IsLast       bool
}

// String returns the rendered text.
func (line Line) String() string {
	return line.Text
}

func connectorFor(isLast bool) string {
	if isLast {
		return lastConnector
	}
	return branchConnector
}

func paddingFor(isLast bool) string {
	if isLast {
		return lastPadding
	}
	return branchPadding
}
