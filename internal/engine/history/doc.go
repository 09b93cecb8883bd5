// Package history provides undo/redo for the draft engine.
//
// Every mutation is represented as a value-type Op carrying enough state to
// compute its own inverse: inserted or deleted text with its offset, or the
// full marker and registry record for marker operations. Ops are grouped
// into Units, the granularity at which undo and redo apply.
//
// # Coalescing
//
// Continuous typing collapses into a single unit: ops recorded through
// RecordTyping merge into the previous typing unit when they arrive within
// the typing window and nothing else intervened. Structural operations
// (marker insert/remove, paste) always record through Record and therefore
// always start a new unit. Any recording clears the redo stack.
//
// # Stacks
//
// Undo pops the top unit, applies its inverse ops in reverse order, and
// pushes the unit onto the redo stack; redo mirrors. Empty-stack calls
// return ErrNothingToUndo/ErrNothingToRedo, which callers treat as benign.
package history
