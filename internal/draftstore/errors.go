package draftstore

import "errors"

// ErrNotFound indicates the draft id does not exist in the store.
var ErrNotFound = errors.New("draft not found")

// ErrConflict indicates the store holds a newer revision than the one
// the write was based on.
var ErrConflict = errors.New("draft revision conflict")

// TransientError wraps a failure worth retrying: network errors and
// server-side 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
