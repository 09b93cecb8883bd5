// Package citation holds the per-session registry mapping marker ids to the
// citation records supplied by the resolution collaborator.
package citation

// Record is the citation data supplied at marker-creation time. The engine
// stores records verbatim and never re-derives any field.
type Record struct {
	// CitationNumber is the display number the marker renders as "[n]".
	// Numbering policy belongs to the caller that resolves citations.
	CitationNumber int

	// DocumentID identifies the cited source document.
	DocumentID string

	// Optional location metadata, nil when the resolver did not supply it.
	Page       *int
	ChunkIndex *int
	Confidence *float64

	// Snippet is the supporting excerpt from the source.
	Snippet string
}
