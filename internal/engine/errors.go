package engine

import (
	"errors"

	"github.com/draftmark/draftmark/internal/engine/history"
	"github.com/draftmark/draftmark/internal/engine/node"
)

// Errors returned by engine operations. The document and history sentinels
// are re-exported so callers match on this package alone.
var (
	// ErrInvalidOffset indicates an offset outside the document or off a
	// rune boundary.
	ErrInvalidOffset = node.ErrInvalidOffset

	// ErrInvalidRange indicates an invalid range (e.g., end < start).
	ErrInvalidRange = node.ErrInvalidRange

	// ErrInsideMarker indicates an edit targeted the inside of a citation
	// marker. It matches ErrInvalidOffset under errors.Is.
	ErrInsideMarker = node.ErrInsideMarker

	// ErrInvalidText indicates inserted text is not valid UTF-8.
	ErrInvalidText = node.ErrInvalidText

	// ErrMarkerNotFound indicates no marker with the requested id exists.
	ErrMarkerNotFound = node.ErrMarkerNotFound

	// ErrDuplicateMarker indicates a marker id collision.
	ErrDuplicateMarker = node.ErrDuplicateMarker

	// ErrNothingToUndo indicates the undo stack is empty. Callers treat it
	// as benign.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty. Callers treat it
	// as benign.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrReadOnly indicates a write was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
