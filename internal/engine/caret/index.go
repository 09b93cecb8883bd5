package caret

import (
	"sort"
	"unicode/utf8"

	"github.com/draftmark/draftmark/internal/engine/node"
)

// Index is a cached offset table over a document's node sequence, keyed on
// the document revision and rebuilt lazily on first use after a mutation.
// It answers the caret-side questions: where node spans begin, which marker
// contains an offset, and where the nearest valid caret boundary lies.
type Index struct {
	built  bool
	rev    uint64
	nodes  []node.Node
	starts []int
	length int
}

// NewIndex creates an empty index; call Sync before querying.
func NewIndex() *Index {
	return &Index{}
}

// Sync rebuilds the table if the document revision moved since the last call.
func (ix *Index) Sync(d *node.Document) {
	rev := d.Revision()
	if ix.built && ix.rev == rev {
		return
	}
	ix.nodes = d.Nodes()
	ix.starts = ix.starts[:0]
	total := 0
	for _, n := range ix.nodes {
		ix.starts = append(ix.starts, total)
		total += n.Span()
	}
	ix.length = total
	ix.rev = rev
	ix.built = true
}

// Len returns the flattened document length.
func (ix *Index) Len() int {
	return ix.length
}

// Segment returns the node containing offset together with its start
// offset. Boundary offsets resolve to the following node; the end of the
// document reports ok == false.
func (ix *Index) Segment(offset int) (node.Node, int, bool) {
	i, ok := ix.nodeIndexAt(offset)
	if !ok {
		return nil, ix.length, false
	}
	return ix.nodes[i], ix.starts[i], true
}

// MarkerAt returns the marker whose span strictly contains offset.
func (ix *Index) MarkerAt(offset int) (node.PlacedMarker, bool) {
	i, ok := ix.nodeIndexAt(offset)
	if !ok {
		return node.PlacedMarker{}, false
	}
	m, isMarker := ix.nodes[i].(node.CitationMarker)
	if !isMarker || offset == ix.starts[i] {
		return node.PlacedMarker{}, false
	}
	return node.PlacedMarker{Marker: m, Start: ix.starts[i], End: ix.starts[i] + m.Span()}, true
}

// Clamp snaps an offset to the nearest valid caret boundary: document
// bounds, rune starts within runs, and marker edges. Inside a marker span
// the nearer edge wins, the trailing edge on a tie.
func (ix *Index) Clamp(offset int) int {
	if offset <= 0 {
		return 0
	}
	if offset >= ix.length {
		return ix.length
	}
	i, ok := ix.nodeIndexAt(offset)
	if !ok {
		return ix.length
	}
	switch n := ix.nodes[i].(type) {
	case node.CitationMarker:
		start := ix.starts[i]
		end := start + n.Span()
		if offset-start < end-offset {
			return start
		}
		return end
	case node.TextRun:
		rel := offset - ix.starts[i]
		for rel > 0 && !utf8.RuneStart(n.Content[rel]) {
			rel--
		}
		return ix.starts[i] + rel
	}
	return offset
}

// ClampSelection clamps both ends of a selection.
func (ix *Index) ClampSelection(sel Selection) Selection {
	return Selection{Anchor: ix.Clamp(sel.Anchor), Head: ix.Clamp(sel.Head)}
}

// nodeIndexAt returns the index of the node containing offset, resolving
// boundary offsets to the following node. ok is false at document end.
func (ix *Index) nodeIndexAt(offset int) (int, bool) {
	if offset < 0 || offset >= ix.length || len(ix.nodes) == 0 {
		return 0, false
	}
	// First start greater than offset, minus one.
	i := sort.Search(len(ix.starts), func(i int) bool { return ix.starts[i] > offset }) - 1
	return i, true
}
