// Package caret provides the selection model and the flattened-offset index
// used to translate caret positions into valid edit targets.
package caret

// Selection is the editor's selection as a pair of flattened byte offsets.
// Anchor is where the selection started; Head is the caret, where typing
// occurs. Anchor == Head is a bare caret. Selection is an immutable value
// type.
type Selection struct {
	Anchor int
	Head   int
}

// Caret creates a collapsed selection at the given offset.
func Caret(offset int) Selection {
	return Selection{Anchor: offset, Head: offset}
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() int {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() int {
	return max(s.Anchor, s.Head)
}

// Len returns the selection extent in bytes.
func (s Selection) Len() int {
	return s.End() - s.Start()
}

// IsForward returns true if the head is at or past the anchor.
func (s Selection) IsForward() bool {
	return s.Head >= s.Anchor
}

// Collapse collapses the selection to a caret at the head.
func (s Selection) Collapse() Selection {
	return Caret(s.Head)
}

// MoveTo returns a caret at the given offset.
func (s Selection) MoveTo(offset int) Selection {
	return Caret(offset)
}

// Extend returns a selection with the anchor fixed and the head moved.
func (s Selection) Extend(offset int) Selection {
	return Selection{Anchor: s.Anchor, Head: offset}
}
