package history

import (
	"github.com/draftmark/draftmark/internal/engine/citation"
	"github.com/draftmark/draftmark/internal/engine/node"
)

// Kind identifies a primitive operation.
type Kind uint8

const (
	KindInsertText Kind = iota
	KindDeleteText
	KindInsertMarker
	KindRemoveMarker
)

// String returns a short human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInsertText:
		return "insert text"
	case KindDeleteText:
		return "delete text"
	case KindInsertMarker:
		return "insert marker"
	case KindRemoveMarker:
		return "remove marker"
	default:
		return "unknown"
	}
}

// Op is a single primitive mutation carrying its own precomputed inverse
// state. Ops within a unit apply sequentially: each op's offset is relative
// to the document as left by its predecessors.
type Op struct {
	Kind   Kind
	Offset int

	// Text is the inserted or deleted text for text ops.
	Text string

	// Marker and Record carry the full node and registry entry for marker
	// ops, so undo can restore both together.
	Marker node.CitationMarker
	Record citation.Record
}

// InsertTextOp builds an op describing text inserted at offset.
func InsertTextOp(offset int, text string) Op {
	return Op{Kind: KindInsertText, Offset: offset, Text: text}
}

// DeleteTextOp builds an op describing text deleted from [offset, offset+len(text)).
func DeleteTextOp(offset int, text string) Op {
	return Op{Kind: KindDeleteText, Offset: offset, Text: text}
}

// InsertMarkerOp builds an op describing a marker placed at offset.
func InsertMarkerOp(offset int, m node.CitationMarker, rec citation.Record) Op {
	return Op{Kind: KindInsertMarker, Offset: offset, Marker: m, Record: rec}
}

// RemoveMarkerOp builds an op describing a marker removed from offset.
func RemoveMarkerOp(offset int, m node.CitationMarker, rec citation.Record) Op {
	return Op{Kind: KindRemoveMarker, Offset: offset, Marker: m, Record: rec}
}

// Invert returns the op that undoes this one.
func (op Op) Invert() Op {
	inv := op
	switch op.Kind {
	case KindInsertText:
		inv.Kind = KindDeleteText
	case KindDeleteText:
		inv.Kind = KindInsertText
	case KindInsertMarker:
		inv.Kind = KindRemoveMarker
	case KindRemoveMarker:
		inv.Kind = KindInsertMarker
	}
	return inv
}

// Apply replays the op against the document and registry. Callers use it to
// roll back partially applied batches by replaying inverses.
func (op Op) Apply(doc *node.Document, reg *citation.Registry) error {
	switch op.Kind {
	case KindInsertText:
		return doc.InsertText(op.Offset, op.Text)
	case KindDeleteText:
		return doc.DeleteText(op.Offset, op.Offset+len(op.Text))
	case KindInsertMarker:
		if err := doc.InsertMarker(op.Offset, op.Marker); err != nil {
			return err
		}
		reg.Put(op.Marker.ID, op.Record)
		return nil
	case KindRemoveMarker:
		if _, _, err := doc.RemoveMarker(op.Marker.ID); err != nil {
			return err
		}
		reg.Remove(op.Marker.ID)
		return nil
	default:
		return errUnknownKind
	}
}
