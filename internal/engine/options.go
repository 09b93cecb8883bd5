package engine

import (
	"time"

	"github.com/draftmark/draftmark/internal/engine/history"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
	DefaultTypingWindow   = history.DefaultTypingWindow
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithTypingWindow sets the coalescing window for typing bursts. Typed
// characters within the window collapse into one undo unit.
func WithTypingWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.typingWindow = d
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithChangeListener registers a callback invoked after every successful
// mutation with the new document revision. The callback runs outside the
// engine lock, on the mutating goroutine.
func WithChangeListener(fn func(rev uint64)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}
