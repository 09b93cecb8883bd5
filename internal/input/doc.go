// Package input translates caret-level edit intents into engine operations.
//
// The translator sits between a UI event source and the engine facade. It
// owns the policies that make citation markers feel atomic at the input
// layer: arrow keys jump over whole markers, backspace and forward-delete
// against a marker first select it and only remove it on a second delete,
// and typing with a selection replaces the selection as one undo unit.
// Grapheme clusters are the unit of caret movement and backward deletion,
// so combining sequences and emoji are never torn apart.
//
// The hard invariants (markers never split, never silently lost) live in
// the engine; this package is the UX layer over them.
package input
