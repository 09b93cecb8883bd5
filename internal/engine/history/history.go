package history

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/draftmark/draftmark/internal/engine/citation"
	"github.com/draftmark/draftmark/internal/engine/node"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	errUnknownKind = errors.New("unknown op kind")
)

// Defaults for history configuration.
const (
	DefaultMaxEntries   = 1000
	DefaultTypingWindow = 500 * time.Millisecond
)

// History manages the undo and redo stacks for one document.
type History struct {
	mu sync.Mutex

	undo []*Unit
	redo []*Unit

	// coalescing marks the top undo unit as open for typing merges. It is
	// cleared by structural records, undo/redo, and explicit breaks.
	coalescing bool

	window     time.Duration
	maxEntries int

	now func() time.Time
}

// NewHistory creates a history manager with the given entry cap.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		window:     DefaultTypingWindow,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// SetTypingWindow changes the coalescing window for typing bursts.
func (h *History) SetTypingWindow(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d > 0 {
		h.window = d
	}
}

// RecordTyping records ops produced by continuous typing. The ops merge
// into the previous typing unit when recorded within the typing window and
// nothing else intervened; otherwise they start a new unit.
func (h *History) RecordTyping(ops []Op) {
	if len(ops) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.redo = nil
	now := h.now()

	if h.coalescing && len(h.undo) > 0 {
		top := h.undo[len(h.undo)-1]
		if top.typing && now.Sub(top.last) <= h.window {
			top.Ops = append(top.Ops, ops...)
			top.last = now
			return
		}
	}

	h.pushLocked(&Unit{Name: "typing", Ops: slices.Clone(ops), start: now, last: now, typing: true})
	h.coalescing = true
}

// Record records ops as a new unit. Structural operations always record
// this way and close any open typing unit.
func (h *History) Record(name string, ops []Op) {
	if len(ops) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.redo = nil
	now := h.now()
	h.pushLocked(&Unit{Name: name, Ops: slices.Clone(ops), start: now, last: now})
	h.coalescing = false
}

// BreakCoalescing closes the open typing unit, so the next typed character
// starts a fresh undo unit. Callers invoke it on caret movement.
func (h *History) BreakCoalescing() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.coalescing = false
}

// pushLocked appends a unit and enforces the entry cap.
func (h *History) pushLocked(u *Unit) {
	h.undo = append(h.undo, u)
	if len(h.undo) > h.maxEntries {
		excess := len(h.undo) - h.maxEntries
		h.undo = slices.Delete(h.undo, 0, excess)
	}
}

// Undo applies the inverse of the most recent unit and moves it to the redo
// stack. Returns the unit name.
func (h *History) Undo(doc *node.Document, reg *citation.Registry) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return "", ErrNothingToUndo
	}
	u := h.undo[len(h.undo)-1]
	if err := applyAll(doc, reg, u.Inverse()); err != nil {
		return "", fmt.Errorf("undo %s: %w", u.Name, err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, u)
	h.coalescing = false
	return u.Name, nil
}

// Redo re-applies the most recently undone unit and moves it back to the
// undo stack. Returns the unit name.
func (h *History) Redo(doc *node.Document, reg *citation.Registry) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return "", ErrNothingToRedo
	}
	u := h.redo[len(h.redo)-1]
	if err := applyAll(doc, reg, u.Ops); err != nil {
		return "", fmt.Errorf("redo %s: %w", u.Name, err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, u)
	h.coalescing = false
	return u.Name, nil
}

func applyAll(doc *node.Document, reg *citation.Registry, ops []Op) error {
	for _, op := range ops {
		if err := op.Apply(doc, reg); err != nil {
			return fmt.Errorf("%s at %d: %w", op.Kind, op.Offset, err)
		}
	}
	return nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// UndoCount returns the number of undo units available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoCount returns the number of redo units available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// PeekUndo returns info about the next undo unit without removing it.
func (h *History) PeekUndo() (UnitInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return UnitInfo{}, false
	}
	return h.undo[len(h.undo)-1].info(), true
}

// PeekRedo returns info about the next redo unit without removing it.
func (h *History) PeekRedo() (UnitInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return UnitInfo{}, false
	}
	return h.redo[len(h.redo)-1].info(), true
}

// Clear removes all undo/redo state.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = nil
	h.redo = nil
	h.coalescing = false
}

// MaxEntries returns the undo entry cap.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}
