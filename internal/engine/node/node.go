package node

import "strconv"

// Node is one atomic unit of draft content.
// Implementations are value types; copying a Node copies the node.
type Node interface {
	// Span returns the node's width in bytes in the flattened text.
	Span() int

	// Flatten returns the node's contribution to the flattened text.
	Flatten() string

	node()
}

// TextRun is a contiguous run of plain text.
type TextRun struct {
	Content string
}

// NewTextRun creates a text run with the given content.
func NewTextRun(content string) TextRun {
	return TextRun{Content: content}
}

// Span returns the byte length of the run's content.
func (t TextRun) Span() int { return len(t.Content) }

// Flatten returns the run's content.
func (t TextRun) Flatten() string { return t.Content }

func (TextRun) node() {}

// CitationMarker is an immutable reference into a source document.
// Edits move markers around; nothing edits a marker in place.
type CitationMarker struct {
	// ID is the marker's identity, unique within a document and stable
	// across serialization.
	ID int

	// CitationNumber is the display number rendered as "[n]".
	CitationNumber int

	// DocumentID identifies the cited source document.
	DocumentID string

	// Optional location metadata, nil when the resolver did not supply it.
	Page       *int
	ChunkIndex *int
	Confidence *float64

	// Snippet is the supporting text excerpt from the source.
	Snippet string
}

// Label returns the marker's rendered form, e.g. "[3]".
func (m CitationMarker) Label() string {
	return "[" + strconv.Itoa(m.CitationNumber) + "]"
}

// Span returns the byte length of the rendered label.
func (m CitationMarker) Span() int { return len(m.Label()) }

// Flatten returns the rendered label.
func (m CitationMarker) Flatten() string { return m.Label() }

func (CitationMarker) node() {}
