// Package engine provides the core draft editing engine for Draftmark.
//
// The engine package serves as the main facade, combining the node document
// model, citation registry, undo/redo history, and selection handling into a
// unified, thread-safe API suitable for building draft editors over
// retrieval-backed citations.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - node: document model of text runs and citation markers, plus the wire codec
//   - citation: citation records and marker id allocation
//   - history: unit-based undo/redo with typing coalescing
//   - caret: selection model and flattened-offset index
//
// # Citation Markers
//
// Citation markers are atomic. No edit operation splits one or changes its
// text: inserting text at an offset inside a marker span lands the text
// just after the marker, deleting a range that overlaps marker spans
// removes only the plain text in the range and leaves the markers in
// place. A marker goes away through exactly two doors: RemoveMarker, or a
// DeleteRange whose bounds equal the marker's span exactly. Undoing either
// restores the marker and its registry record together.
//
// # Thread Safety
//
// All Engine operations are thread-safe. The engine uses a read-write mutex
// to allow concurrent reads while serializing writes. Change listeners run
// outside the lock and may call back into the engine.
//
// # Basic Usage
//
// Create an engine and perform basic edits:
//
//	e := engine.New()
//
//	// Type some text
//	e.InsertText(0, "OAuth 2.0 is an authorization framework.")
//
//	// Attach a citation after "OAuth 2.0"
//	m, _ := e.InsertMarker(9, engine.Citation{
//		CitationNumber: 1,
//		DocumentID:     "doc-abc123",
//		Snippet:        "OAuth 2.0 is the industry-standard protocol...",
//	})
//
//	// Serialize for persistence
//	data, _ := e.Serialize()
//
//	// Undo the citation insert
//	e.Undo()
//	_ = m
//	_ = data
//
// # Loading Drafts
//
// Create an engine from a stored draft body:
//
//	e, err := engine.NewFromJSON(data)
//	if err != nil {
//		// corrupt or duplicate-marker draft
//	}
package engine
