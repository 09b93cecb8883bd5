package input

import "github.com/draftmark/draftmark/internal/engine"

// Kind identifies an edit intent.
type Kind uint8

const (
	// KindNone indicates no intent.
	KindNone Kind = iota
	// KindTypeText inserts typed text at the caret, replacing any selection.
	KindTypeText
	// KindBackspace deletes backward from the caret, or the selection.
	KindBackspace
	// KindDeleteForward deletes forward from the caret, or the selection.
	KindDeleteForward
	// KindMoveLeft moves the caret one grapheme or marker to the left.
	KindMoveLeft
	// KindMoveRight moves the caret one grapheme or marker to the right.
	KindMoveRight
	// KindMoveTo places the caret at an absolute offset (mouse click).
	KindMoveTo
	// KindSelectAll selects the whole document.
	KindSelectAll
	// KindPaste splices sanitized clipboard nodes in at the selection.
	KindPaste
	// KindUndo reverts the most recent undo unit.
	KindUndo
	// KindRedo re-applies the most recently undone unit.
	KindRedo
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTypeText:
		return "type"
	case KindBackspace:
		return "backspace"
	case KindDeleteForward:
		return "delete-forward"
	case KindMoveLeft:
		return "move-left"
	case KindMoveRight:
		return "move-right"
	case KindMoveTo:
		return "move-to"
	case KindSelectAll:
		return "select-all"
	case KindPaste:
		return "paste"
	case KindUndo:
		return "undo"
	case KindRedo:
		return "redo"
	default:
		return "none"
	}
}

// Intent is one caret-level edit event, normalized away from any particular
// key encoding.
type Intent struct {
	Kind Kind

	// Text is the typed text for KindTypeText.
	Text string

	// Offset is the target offset for KindMoveTo.
	Offset int

	// Extend grows the selection instead of collapsing it (shift-modifier
	// movement and drags).
	Extend bool

	// Nodes is the sanitized clipboard content for KindPaste.
	Nodes []engine.Node
}

// TypeText builds a typing intent.
func TypeText(text string) Intent {
	return Intent{Kind: KindTypeText, Text: text}
}

// Backspace builds a backward-delete intent.
func Backspace() Intent {
	return Intent{Kind: KindBackspace}
}

// DeleteForward builds a forward-delete intent.
func DeleteForward() Intent {
	return Intent{Kind: KindDeleteForward}
}

// MoveLeft builds a leftward movement intent.
func MoveLeft(extend bool) Intent {
	return Intent{Kind: KindMoveLeft, Extend: extend}
}

// MoveRight builds a rightward movement intent.
func MoveRight(extend bool) Intent {
	return Intent{Kind: KindMoveRight, Extend: extend}
}

// MoveTo builds an absolute caret placement intent.
func MoveTo(offset int, extend bool) Intent {
	return Intent{Kind: KindMoveTo, Offset: offset, Extend: extend}
}

// SelectAll builds a select-all intent.
func SelectAll() Intent {
	return Intent{Kind: KindSelectAll}
}

// Paste builds a paste intent carrying sanitized nodes.
func Paste(nodes []engine.Node) Intent {
	return Intent{Kind: KindPaste, Nodes: nodes}
}

// Undo builds an undo intent.
func Undo() Intent {
	return Intent{Kind: KindUndo}
}

// Redo builds a redo intent.
func Redo() Intent {
	return Intent{Kind: KindRedo}
}
