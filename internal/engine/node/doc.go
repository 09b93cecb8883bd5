// Package node defines the draft content model: a flat, ordered sequence of
// atomic nodes and the operations that splice it.
//
// # Nodes
//
// Two node kinds exist:
//   - TextRun: a contiguous run of editable plain text
//   - CitationMarker: an immutable reference into a source document
//
// Formatting is not part of the model. A marker renders as "[n]" where n is
// its citation number; the marker occupies exactly that many bytes in the
// flattened text and is never split by an edit.
//
// # Offsets
//
// All offsets are byte offsets into the flattened text: the concatenation of
// every run's content and every marker's rendered label. An offset is valid
// if it lies on a UTF-8 rune boundary in [0, Len()]. Offsets strictly inside
// a marker's span are valid positions in the flattened text but are not
// valid edit targets; Document operations reject them.
//
// # Invariants
//
// A Document never contains two adjacent TextRuns (they are merged on every
// mutation) and never contains an empty TextRun. Marker ids are unique
// within a document. Deserialization re-normalizes, so the invariants hold
// even for hand-built input.
//
// # Wire format
//
// MarshalNodes and UnmarshalNodes implement the canonical JSON form: a flat
// array of tagged objects, "text" entries carrying content and "citation"
// entries carrying the marker fields. An empty document marshals to "[]",
// never to null.
package node
