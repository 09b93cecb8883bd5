package engine

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/draftmark/draftmark/internal/engine/caret"
	"github.com/draftmark/draftmark/internal/engine/citation"
	"github.com/draftmark/draftmark/internal/engine/history"
	"github.com/draftmark/draftmark/internal/engine/node"
)

// Re-export commonly used types for convenience.
type (
	// Node is one atomic unit of draft content.
	Node = node.Node

	// TextRun is a contiguous run of plain text.
	TextRun = node.TextRun

	// CitationMarker is an immutable reference into a source document.
	CitationMarker = node.CitationMarker

	// PlacedMarker is a marker together with its flattened span.
	PlacedMarker = node.PlacedMarker

	// Position locates a flattened offset within the node sequence.
	Position = node.Position

	// Citation is the registry record backing a marker.
	Citation = citation.Record

	// Selection is a selection over flattened byte offsets.
	Selection = caret.Selection

	// UnitInfo describes a recorded undo unit.
	UnitInfo = history.UnitInfo
)

// Caret returns a collapsed selection at the given offset.
func Caret(offset int) Selection { return caret.Caret(offset) }

// NewSelection returns a selection from anchor to head.
func NewSelection(anchor, head int) Selection { return caret.NewSelection(anchor, head) }

// Engine is the main facade for the draft editing engine.
// It combines the node document, the citation registry, undo/redo history,
// and the selection into a unified, thread-safe API.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Engine struct {
	mu sync.RWMutex

	// Core components
	doc      *node.Document
	registry *citation.Registry
	history  *history.History
	index    *caret.Index
	sel      caret.Selection

	// Configuration
	maxUndoEntries int
	typingWindow   time.Duration
	readOnly       bool

	onChange func(rev uint64)
}

// New creates a new Engine with an empty document.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxUndoEntries: DefaultMaxUndoEntries,
		typingWindow:   DefaultTypingWindow,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.doc = node.New()
	e.registry = citation.NewRegistry()
	e.history = history.NewHistory(e.maxUndoEntries)
	e.history.SetTypingWindow(e.typingWindow)
	e.index = caret.NewIndex()
	e.sel = caret.Caret(0)

	return e
}

// NewFromNodes creates an Engine holding the given draft body.
// It fails when the body carries duplicate marker ids or invalid text.
func NewFromNodes(nodes []Node, opts ...Option) (*Engine, error) {
	e := New(opts...)
	if err := e.Load(nodes); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromJSON creates an Engine from a serialized draft body.
func NewFromJSON(data []byte, opts ...Option) (*Engine, error) {
	nodes, err := node.UnmarshalNodes(data)
	if err != nil {
		return nil, err
	}
	return NewFromNodes(nodes, opts...)
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the flattened document text, marker labels included.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Text()
}

// Len returns the flattened document length in bytes.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Len()
}

// IsEmpty returns true if the document has no content.
func (e *Engine) IsEmpty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.NodeCount() == 0
}

// NodeCount returns the number of nodes in the document.
func (e *Engine) NodeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.NodeCount()
}

// Nodes returns a copy of the document's node sequence.
func (e *Engine) Nodes() []Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Nodes()
}

// Revision returns a counter bumped on every successful mutation.
func (e *Engine) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Revision()
}

// Locate resolves a flattened offset to its position in the node sequence.
func (e *Engine) Locate(offset int) (Position, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Locate(offset)
}

// Markers returns every citation marker with its span, in document order.
func (e *Engine) Markers() []PlacedMarker {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.Markers()
}

// MarkerByID returns the marker with the given id and its span.
func (e *Engine) MarkerByID(id int) (PlacedMarker, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.MarkerByID(id)
}

// MarkerAt returns the marker whose span strictly contains the offset.
func (e *Engine) MarkerAt(offset int) (PlacedMarker, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return markerAt(e.doc.Markers(), offset)
}

// Citation returns the registry record for a marker id.
func (e *Engine) Citation(id int) (Citation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Get(id)
}

// Serialize returns the draft body in its canonical wire form.
func (e *Engine) Serialize() ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return node.MarshalNodes(e.doc.Nodes())
}

// ============================================================================
// Selection
// ============================================================================

// Selection returns the current selection.
func (e *Engine) Selection() Selection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sel
}

// SetSelection replaces the selection, snapping both ends to valid caret
// boundaries, and returns the result. Moving the selection closes the open
// typing unit so the next typed character starts a fresh one.
func (e *Engine) SetSelection(sel Selection) Selection {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Sync(e.doc)
	e.sel = e.index.ClampSelection(sel)
	e.history.BreakCoalescing()
	return e.sel
}

// SelectAll selects the whole document.
func (e *Engine) SelectAll() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sel = caret.NewSelection(0, e.doc.Len())
	e.history.BreakCoalescing()
	return e.sel
}

// ============================================================================
// Write Operations
// ============================================================================

// InsertText inserts text at the given offset and returns the offset just
// past it. An offset strictly inside a marker span is redirected to the
// position after the marker, so typing against a marker never splits it.
// Consecutive inserts within the typing window coalesce into one undo unit.
func (e *Engine) InsertText(offset int, text string) (int, error) {
	e.mu.Lock()
	before := e.doc.Revision()
	end, err := e.insertTextLocked(offset, text)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return end, err
}

func (e *Engine) insertTextLocked(offset int, text string) (int, error) {
	if e.readOnly {
		return 0, ErrReadOnly
	}
	if text == "" {
		return offset, nil
	}

	e.index.Sync(e.doc)
	if pm, ok := e.index.MarkerAt(offset); ok {
		offset = pm.End
	}

	if err := e.doc.InsertText(offset, text); err != nil {
		return 0, err
	}

	e.history.RecordTyping([]history.Op{history.InsertTextOp(offset, text)})
	end := offset + len(text)
	e.sel = caret.Caret(end)
	return end, nil
}

// DeleteRange removes the plain text in [start, end). Citation markers
// overlapped by the range survive it, except when the range equals a single
// marker's span exactly: that removes the marker and its citation record.
// The selection collapses to the start of the range.
func (e *Engine) DeleteRange(start, end int) error {
	e.mu.Lock()
	before := e.doc.Revision()
	err := e.deleteRangeAndRecordLocked(start, end)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return err
}

func (e *Engine) deleteRangeAndRecordLocked(start, end int) error {
	if e.readOnly {
		return ErrReadOnly
	}

	ops, err := e.deleteRangeLocked(start, end)
	if err != nil {
		return err
	}
	e.history.Record("delete", ops)

	e.index.Sync(e.doc)
	e.sel = caret.Caret(e.index.Clamp(start))
	return nil
}

// deleteRangeLocked validates and applies a range delete, returning the ops
// in application order. Markers inside the range are preserved by deleting
// only the text sub-ranges around them, highest offset first.
func (e *Engine) deleteRangeLocked(start, end int) ([]history.Op, error) {
	if end < start {
		return nil, ErrInvalidRange
	}
	if start < 0 || end > e.doc.Len() {
		return nil, ErrInvalidOffset
	}
	if err := e.checkEndpointLocked(start); err != nil {
		return nil, err
	}
	if err := e.checkEndpointLocked(end); err != nil {
		return nil, err
	}

	// A range matching one marker's span exactly removes the marker.
	for _, pm := range e.doc.Markers() {
		if pm.Start == start && pm.End == end {
			m, _, err := e.doc.RemoveMarker(pm.Marker.ID)
			if err != nil {
				return nil, err
			}
			rec, _ := e.registry.Remove(m.ID)
			return []history.Op{history.RemoveMarkerOp(start, m, rec)}, nil
		}
	}

	// Collect the text sub-ranges covered by [start, end), ascending.
	var subs []history.Op
	nodeStart := 0
	for _, n := range e.doc.Nodes() {
		nodeEnd := nodeStart + n.Span()
		if run, ok := n.(node.TextRun); ok && nodeEnd > start && nodeStart < end {
			s := max(start-nodeStart, 0)
			t := min(end-nodeStart, n.Span())
			if s < t {
				subs = append(subs, history.DeleteTextOp(nodeStart+s, run.Content[s:t]))
			}
		}
		nodeStart = nodeEnd
	}

	// Delete highest offset first so earlier sub-ranges stay valid.
	ops := make([]history.Op, 0, len(subs))
	for i := len(subs) - 1; i >= 0; i-- {
		op := subs[i]
		if err := e.doc.DeleteText(op.Offset, op.Offset+len(op.Text)); err != nil {
			e.rollbackLocked(ops)
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Replace deletes [start, end) and inserts text at the collapse point as a
// single undo unit. Returns the offset just past the inserted text. Marker
// preservation follows DeleteRange.
func (e *Engine) Replace(start, end int, text string) (int, error) {
	e.mu.Lock()
	before := e.doc.Revision()
	pos, err := e.replaceLocked(start, end, text)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return pos, err
}

func (e *Engine) replaceLocked(start, end int, text string) (int, error) {
	if e.readOnly {
		return 0, ErrReadOnly
	}
	if !utf8.ValidString(text) {
		return 0, ErrInvalidText
	}

	ops, err := e.deleteRangeLocked(start, end)
	if err != nil {
		return 0, err
	}

	e.index.Sync(e.doc)
	at := start
	if pm, ok := e.index.MarkerAt(at); ok {
		at = pm.End
	}

	if text != "" {
		if err := e.doc.InsertText(at, text); err != nil {
			e.rollbackLocked(ops)
			return 0, err
		}
		ops = append(ops, history.InsertTextOp(at, text))
	}

	e.history.Record("replace", ops)
	pos := at + len(text)
	e.sel = caret.Caret(pos)
	return pos, nil
}

// InsertMarker places a citation marker at the given offset, allocating its
// id and registering the citation record. A mid-run offset splits the run;
// an offset inside another marker is rejected with ErrInvalidOffset.
func (e *Engine) InsertMarker(offset int, rec Citation) (CitationMarker, error) {
	e.mu.Lock()
	before := e.doc.Revision()
	m, err := e.insertMarkerLocked(offset, rec)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return m, err
}

func (e *Engine) insertMarkerLocked(offset int, rec Citation) (CitationMarker, error) {
	if e.readOnly {
		return CitationMarker{}, ErrReadOnly
	}

	m := markerFromRecord(e.registry.AllocateID(), rec)
	if err := e.doc.InsertMarker(offset, m); err != nil {
		return CitationMarker{}, err
	}
	e.registry.Put(m.ID, rec)

	e.history.Record("insert citation", []history.Op{history.InsertMarkerOp(offset, m, rec)})
	e.sel = caret.Caret(offset + m.Span())
	return m, nil
}

// RemoveMarker removes the marker with the given id together with its
// citation record. The selection is clamped to the edited document.
func (e *Engine) RemoveMarker(id int) error {
	e.mu.Lock()
	before := e.doc.Revision()
	err := e.removeMarkerLocked(id)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return err
}

func (e *Engine) removeMarkerLocked(id int) error {
	if e.readOnly {
		return ErrReadOnly
	}

	m, start, err := e.doc.RemoveMarker(id)
	if err != nil {
		return err
	}
	rec, _ := e.registry.Remove(id)

	e.history.Record("remove citation", []history.Op{history.RemoveMarkerOp(start, m, rec)})

	e.index.Sync(e.doc)
	e.sel = e.index.ClampSelection(e.sel)
	return nil
}

// ApplyPastedNodes splices sanitized clipboard nodes in at the current
// selection. A non-empty selection is deleted first under DeleteRange
// semantics. Pasted marker ids colliding with existing markers are
// reallocated. The whole paste is one undo unit; the selection collapses
// to the end of the pasted content.
func (e *Engine) ApplyPastedNodes(nodes []Node) error {
	e.mu.Lock()
	before := e.doc.Revision()
	err := e.applyPastedLocked(nodes)
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return err
}

func (e *Engine) applyPastedLocked(nodes []node.Node) error {
	if e.readOnly {
		return ErrReadOnly
	}

	nodes = node.Normalize(nodes)
	seen := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case node.TextRun:
			if !utf8.ValidString(v.Content) {
				return ErrInvalidText
			}
		case node.CitationMarker:
			if seen[v.ID] {
				return fmt.Errorf("pasted marker id %d: %w", v.ID, ErrDuplicateMarker)
			}
			seen[v.ID] = true
		}
	}

	sel := e.sel
	var ops []history.Op
	if !sel.IsEmpty() {
		dels, err := e.deleteRangeLocked(sel.Start(), sel.End())
		if err != nil {
			return err
		}
		ops = dels
	}

	e.index.Sync(e.doc)
	at := sel.Start()
	if pm, ok := e.index.MarkerAt(at); ok {
		at = pm.End
	}

	for _, n := range nodes {
		switch v := n.(type) {
		case node.TextRun:
			if err := e.doc.InsertText(at, v.Content); err != nil {
				e.rollbackLocked(ops)
				return err
			}
			ops = append(ops, history.InsertTextOp(at, v.Content))
			at += v.Span()
		case node.CitationMarker:
			if e.doc.HasMarker(v.ID) {
				v.ID = e.registry.AllocateID()
			}
			rec := recordFromMarker(v)
			if err := e.doc.InsertMarker(at, v); err != nil {
				e.rollbackLocked(ops)
				return err
			}
			e.registry.Put(v.ID, rec)
			ops = append(ops, history.InsertMarkerOp(at, v, rec))
			at += v.Span()
		}
	}

	e.history.Record("paste", ops)
	e.sel = caret.Caret(at)
	return nil
}

// Load replaces the draft wholesale: document, registry, selection, and
// history all reset. It fails without side effects on duplicate marker ids
// or invalid text. Load represents the persisted state, so it does not fire
// the change listener, and it is permitted on read-only engines.
func (e *Engine) Load(nodes []Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make(map[int]citation.Record)
	for _, n := range nodes {
		switch v := n.(type) {
		case node.TextRun:
			if !utf8.ValidString(v.Content) {
				return ErrInvalidText
			}
		case node.CitationMarker:
			if _, dup := entries[v.ID]; dup {
				return fmt.Errorf("marker id %d: %w", v.ID, ErrDuplicateMarker)
			}
			entries[v.ID] = recordFromMarker(v)
		}
	}

	e.doc.Reset(nodes)
	e.registry.Refresh(entries)
	e.history.Clear()
	e.sel = caret.Caret(0)
	return nil
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo reverts the most recent undo unit and returns its name. The document
// and the citation registry roll back together.
func (e *Engine) Undo() (string, error) {
	e.mu.Lock()
	before := e.doc.Revision()
	name, err := e.undoLocked()
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return name, err
}

func (e *Engine) undoLocked() (string, error) {
	if e.readOnly {
		return "", ErrReadOnly
	}
	name, err := e.history.Undo(e.doc, e.registry)
	if err != nil {
		return "", err
	}
	e.index.Sync(e.doc)
	e.sel = e.index.ClampSelection(e.sel)
	return name, nil
}

// Redo re-applies the most recently undone unit and returns its name.
func (e *Engine) Redo() (string, error) {
	e.mu.Lock()
	before := e.doc.Revision()
	name, err := e.redoLocked()
	after := e.doc.Revision()
	e.mu.Unlock()

	if err == nil {
		e.notifyChanged(before, after)
	}
	return name, err
}

func (e *Engine) redoLocked() (string, error) {
	if e.readOnly {
		return "", ErrReadOnly
	}
	name, err := e.history.Redo(e.doc, e.registry)
	if err != nil {
		return "", err
	}
	e.index.Sync(e.doc)
	e.sel = e.index.ClampSelection(e.sel)
	return name, nil
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of available undo units.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of available redo units.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// PeekUndo returns info about the next undo unit without applying it.
func (e *Engine) PeekUndo() (UnitInfo, bool) {
	return e.history.PeekUndo()
}

// PeekRedo returns info about the next redo unit without applying it.
func (e *Engine) PeekRedo() (UnitInfo, bool) {
	return e.history.PeekRedo()
}

// BreakCoalescing closes the open typing unit, so the next typed character
// starts a fresh undo unit.
func (e *Engine) BreakCoalescing() {
	e.history.BreakCoalescing()
}

// ClearHistory removes all undo/redo state.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// ============================================================================
// Internal helpers
// ============================================================================

// checkEndpointLocked rejects a range endpoint that falls off a rune
// boundary inside a text run. Endpoints inside marker spans are legal for
// range deletes; the marker is preserved whole.
func (e *Engine) checkEndpointLocked(offset int) error {
	pos, err := e.doc.Locate(offset)
	if err != nil {
		return err
	}
	if run, ok := pos.Node.(node.TextRun); ok && pos.Rel > 0 && !utf8.RuneStart(run.Content[pos.Rel]) {
		return ErrInvalidOffset
	}
	return nil
}

// rollbackLocked replays inverses of already-applied ops after a mid-batch
// failure, restoring the pre-batch state.
func (e *Engine) rollbackLocked(ops []history.Op) {
	for i := len(ops) - 1; i >= 0; i-- {
		_ = ops[i].Invert().Apply(e.doc, e.registry)
	}
}

// notifyChanged fires the change listener after a mutation moved the
// revision. Callers invoke it with the engine lock released, so listeners
// may call back into the engine.
func (e *Engine) notifyChanged(before, after uint64) {
	if e.onChange != nil && after != before {
		e.onChange(after)
	}
}

func markerAt(markers []PlacedMarker, offset int) (PlacedMarker, bool) {
	for _, pm := range markers {
		if offset > pm.Start && offset < pm.End {
			return pm, true
		}
	}
	return PlacedMarker{}, false
}

func markerFromRecord(id int, rec Citation) node.CitationMarker {
	return node.CitationMarker{
		ID:             id,
		CitationNumber: rec.CitationNumber,
		DocumentID:     rec.DocumentID,
		Page:           rec.Page,
		ChunkIndex:     rec.ChunkIndex,
		Confidence:     rec.Confidence,
		Snippet:        rec.Snippet,
	}
}

func recordFromMarker(m node.CitationMarker) Citation {
	return Citation{
		CitationNumber: m.CitationNumber,
		DocumentID:     m.DocumentID,
		Page:           m.Page,
		ChunkIndex:     m.ChunkIndex,
		Confidence:     m.Confidence,
		Snippet:        m.Snippet,
	}
}
