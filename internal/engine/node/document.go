package node

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Document is an ordered sequence of nodes in reading order.
// It maintains the model invariants on every mutation: adjacent text runs
// are merged, empty runs are dropped, and markers are never split.
//
// Document is not safe for concurrent use; the engine facade serializes
// access to it.
type Document struct {
	nodes []Node
	rev   uint64
}

// New creates an empty document.
func New() *Document {
	return &Document{}
}

// FromNodes creates a document from a node list, normalizing it first.
func FromNodes(nodes []Node) *Document {
	return &Document{nodes: Normalize(nodes)}
}

// Position locates a flattened offset within the node sequence.
// An offset on a node boundary resolves to the start of the following node.
type Position struct {
	Index int  // node index; NodeCount() when the offset is at document end
	Rel   int  // byte offset inside the node at Index
	Start int  // flattened offset at which the node at Index begins
	Node  Node // node at Index, nil at document end
}

// Revision returns a counter bumped on every successful mutation.
func (d *Document) Revision() uint64 { return d.rev }

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int { return len(d.nodes) }

// Nodes returns a copy of the node sequence.
func (d *Document) Nodes() []Node {
	return slices.Clone(d.nodes)
}

// Len returns the length of the flattened text in bytes.
func (d *Document) Len() int {
	total := 0
	for _, n := range d.nodes {
		total += n.Span()
	}
	return total
}

// Text returns the flattened text: run contents and marker labels
// concatenated in order.
func (d *Document) Text() string {
	var b strings.Builder
	for _, n := range d.nodes {
		b.WriteString(n.Flatten())
	}
	return b.String()
}

// Locate resolves a flattened offset to a position in the node sequence.
func (d *Document) Locate(offset int) (Position, error) {
	if offset < 0 {
		return Position{}, ErrInvalidOffset
	}
	start := 0
	for i, n := range d.nodes {
		span := n.Span()
		if offset < start+span {
			return Position{Index: i, Rel: offset - start, Start: start, Node: n}, nil
		}
		start += span
	}
	if offset > start {
		return Position{}, ErrInvalidOffset
	}
	return Position{Index: len(d.nodes), Start: start}, nil
}

// PlacedMarker is a marker together with its flattened span.
type PlacedMarker struct {
	Marker CitationMarker
	Start  int
	End    int
}

// Markers returns every marker with its span, in document order.
func (d *Document) Markers() []PlacedMarker {
	var out []PlacedMarker
	start := 0
	for _, n := range d.nodes {
		if m, ok := n.(CitationMarker); ok {
			out = append(out, PlacedMarker{Marker: m, Start: start, End: start + m.Span()})
		}
		start += n.Span()
	}
	return out
}

// MarkerByID returns the marker with the given id and its span.
func (d *Document) MarkerByID(id int) (PlacedMarker, bool) {
	start := 0
	for _, n := range d.nodes {
		if m, ok := n.(CitationMarker); ok && m.ID == id {
			return PlacedMarker{Marker: m, Start: start, End: start + m.Span()}, true
		}
		start += n.Span()
	}
	return PlacedMarker{}, false
}

// HasMarker reports whether a marker with the given id exists.
func (d *Document) HasMarker(id int) bool {
	_, ok := d.MarkerByID(id)
	return ok
}

// InsertText splices text into the document at the given offset.
// The offset must lie on a rune boundary and outside every marker span.
func (d *Document) InsertText(offset int, text string) error {
	if text == "" {
		return nil
	}
	if !utf8.ValidString(text) {
		return ErrInvalidText
	}
	pos, err := d.Locate(offset)
	if err != nil {
		return err
	}
	if err := d.checkEditPoint(pos); err != nil {
		return err
	}

	if run, ok := pos.Node.(TextRun); ok {
		run.Content = run.Content[:pos.Rel] + text + run.Content[pos.Rel:]
		d.nodes[pos.Index] = run
		d.rev++
		return nil
	}

	// Boundary position in front of a marker or at document end. Extend the
	// preceding run when there is one, otherwise create a run.
	if pos.Index > 0 {
		if run, ok := d.nodes[pos.Index-1].(TextRun); ok {
			run.Content += text
			d.nodes[pos.Index-1] = run
			d.rev++
			return nil
		}
	}
	d.nodes = slices.Insert(d.nodes, pos.Index, Node(NewTextRun(text)))
	d.rev++
	return nil
}

// DeleteText removes the text in [start, end). The range must not touch any
// marker: callers decompose marker-overlapping deletes into text sub-ranges
// first. Marker removal goes through RemoveMarker.
func (d *Document) DeleteText(start, end int) error {
	if end < start {
		return ErrInvalidRange
	}
	if start == end {
		return nil
	}
	sp, err := d.Locate(start)
	if err != nil {
		return err
	}
	ep, err := d.Locate(end)
	if err != nil {
		return err
	}
	if err := d.checkEditPoint(sp); err != nil {
		return err
	}
	if err := d.checkEditPoint(ep); err != nil {
		return err
	}

	out := make([]Node, 0, len(d.nodes))
	nodeStart := 0
	for _, n := range d.nodes {
		nodeEnd := nodeStart + n.Span()
		switch {
		case nodeEnd <= start || nodeStart >= end:
			out = append(out, n)
		case nodeStart >= start && nodeEnd <= end:
			if _, ok := n.(TextRun); !ok {
				return ErrInsideMarker
			}
		default:
			run, ok := n.(TextRun)
			if !ok {
				return ErrInsideMarker
			}
			s := max(start-nodeStart, 0)
			e := min(end-nodeStart, n.Span())
			out = append(out, TextRun{Content: run.Content[:s] + run.Content[e:]})
		}
		nodeStart = nodeEnd
	}

	d.nodes = Normalize(out)
	d.rev++
	return nil
}

// InsertMarker places a marker at the given offset. A mid-run offset splits
// the run; an offset inside another marker is rejected.
func (d *Document) InsertMarker(offset int, m CitationMarker) error {
	pos, err := d.Locate(offset)
	if err != nil {
		return err
	}
	if err := d.checkEditPoint(pos); err != nil {
		return err
	}
	if d.HasMarker(m.ID) {
		return ErrDuplicateMarker
	}

	if run, ok := pos.Node.(TextRun); ok && pos.Rel > 0 {
		before := TextRun{Content: run.Content[:pos.Rel]}
		after := TextRun{Content: run.Content[pos.Rel:]}
		d.nodes[pos.Index] = before
		d.nodes = slices.Insert(d.nodes, pos.Index+1, Node(m), Node(after))
		d.rev++
		return nil
	}

	d.nodes = slices.Insert(d.nodes, pos.Index, Node(m))
	d.rev++
	return nil
}

// RemoveMarker removes the marker with the given id and returns it together
// with the flattened offset where its span began. Runs left adjacent by the
// removal are merged.
func (d *Document) RemoveMarker(id int) (CitationMarker, int, error) {
	start := 0
	for i, n := range d.nodes {
		if m, ok := n.(CitationMarker); ok && m.ID == id {
			d.nodes = Normalize(slices.Delete(d.nodes, i, i+1))
			d.rev++
			return m, start, nil
		}
		start += n.Span()
	}
	return CitationMarker{}, 0, ErrMarkerNotFound
}

// Reset replaces the whole node sequence, normalizing it. Used when a draft
// is (re)loaded.
func (d *Document) Reset(nodes []Node) {
	d.nodes = Normalize(nodes)
	d.rev++
}

// checkEditPoint rejects positions strictly inside a marker span or off a
// rune boundary inside a run.
func (d *Document) checkEditPoint(pos Position) error {
	if pos.Rel == 0 {
		return nil
	}
	switch n := pos.Node.(type) {
	case CitationMarker:
		return ErrInsideMarker
	case TextRun:
		if !utf8.RuneStart(n.Content[pos.Rel]) {
			return ErrInvalidOffset
		}
	}
	return nil
}

// Normalize returns a node list with the model invariants applied: empty
// runs dropped and adjacent runs merged. The input is not modified.
func Normalize(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if run, ok := n.(TextRun); ok {
			if run.Content == "" {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(TextRun); ok {
					out[len(out)-1] = TextRun{Content: prev.Content + run.Content}
					continue
				}
			}
		}
		out = append(out, n)
	}
	return out
}
