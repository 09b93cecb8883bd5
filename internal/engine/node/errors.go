package node

import (
	"errors"
	"fmt"
)

// Errors returned by document operations.
var (
	// ErrInvalidOffset indicates an offset outside document bounds or not on
	// a rune boundary.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrInvalidRange indicates an invalid range (end < start).
	ErrInvalidRange = errors.New("invalid range")

	// ErrInsideMarker indicates an edit targeted a position strictly inside
	// a citation marker's span. It matches ErrInvalidOffset under errors.Is.
	ErrInsideMarker = fmt.Errorf("%w: inside citation marker", ErrInvalidOffset)

	// ErrInvalidText indicates inserted text is not valid UTF-8.
	ErrInvalidText = errors.New("text is not valid UTF-8")

	// ErrMarkerNotFound indicates no marker with the requested id exists.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrDuplicateMarker indicates a marker id already present in the document.
	ErrDuplicateMarker = errors.New("duplicate marker id")
)
