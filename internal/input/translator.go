package input

import (
	"errors"
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/draftmark/draftmark/internal/engine"
)

// ErrUnknownIntent indicates an intent kind the translator does not handle.
var ErrUnknownIntent = errors.New("unknown intent")

// Translator applies edit intents to an engine.
type Translator struct {
	eng *engine.Engine
}

// New creates a translator over the given engine.
func New(eng *engine.Engine) *Translator {
	return &Translator{eng: eng}
}

// Apply executes one intent. Undo and redo against empty stacks are benign
// no-ops.
func (t *Translator) Apply(intent Intent) error {
	switch intent.Kind {
	case KindTypeText:
		return t.typeText(intent.Text)
	case KindBackspace:
		return t.backspace()
	case KindDeleteForward:
		return t.deleteForward()
	case KindMoveLeft:
		t.moveLeft(intent.Extend)
		return nil
	case KindMoveRight:
		t.moveRight(intent.Extend)
		return nil
	case KindMoveTo:
		t.moveTo(intent.Offset, intent.Extend)
		return nil
	case KindSelectAll:
		t.eng.SelectAll()
		return nil
	case KindPaste:
		return t.eng.ApplyPastedNodes(intent.Nodes)
	case KindUndo:
		if _, err := t.eng.Undo(); err != nil && !errors.Is(err, engine.ErrNothingToUndo) {
			return err
		}
		return nil
	case KindRedo:
		if _, err := t.eng.Redo(); err != nil && !errors.Is(err, engine.ErrNothingToRedo) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownIntent, intent.Kind)
	}
}

func (t *Translator) typeText(text string) error {
	if text == "" {
		return nil
	}
	sel := t.eng.Selection()
	if sel.IsEmpty() {
		_, err := t.eng.InsertText(sel.Head, text)
		return err
	}
	_, err := t.eng.Replace(sel.Start(), sel.End(), text)
	return err
}

func (t *Translator) backspace() error {
	sel := t.eng.Selection()
	if !sel.IsEmpty() {
		return t.eng.DeleteRange(sel.Start(), sel.End())
	}
	at := sel.Head
	if at == 0 {
		return nil
	}
	// A marker ending at the caret gets selected first; the next delete
	// keypress removes it through the exact-span rule. Selecting is the
	// explicit step that keeps markers from vanishing on a stray keystroke.
	if pm, ok := markerEndingAt(t.eng.Markers(), at); ok {
		t.eng.SetSelection(engine.NewSelection(pm.Start, pm.End))
		return nil
	}
	return t.eng.DeleteRange(t.prevBoundary(at), at)
}

func (t *Translator) deleteForward() error {
	sel := t.eng.Selection()
	if !sel.IsEmpty() {
		return t.eng.DeleteRange(sel.Start(), sel.End())
	}
	at := sel.Head
	if at >= t.eng.Len() {
		return nil
	}
	if pm, ok := markerStartingAt(t.eng.Markers(), at); ok {
		t.eng.SetSelection(engine.NewSelection(pm.Start, pm.End))
		return nil
	}
	return t.eng.DeleteRange(at, t.nextBoundary(at))
}

func (t *Translator) moveLeft(extend bool) {
	sel := t.eng.Selection()
	if extend {
		t.eng.SetSelection(sel.Extend(t.prevBoundary(sel.Head)))
		return
	}
	if !sel.IsEmpty() {
		t.eng.SetSelection(engine.Caret(sel.Start()))
		return
	}
	t.eng.SetSelection(engine.Caret(t.prevBoundary(sel.Head)))
}

func (t *Translator) moveRight(extend bool) {
	sel := t.eng.Selection()
	if extend {
		t.eng.SetSelection(sel.Extend(t.nextBoundary(sel.Head)))
		return
	}
	if !sel.IsEmpty() {
		t.eng.SetSelection(engine.Caret(sel.End()))
		return
	}
	t.eng.SetSelection(engine.Caret(t.nextBoundary(sel.Head)))
}

func (t *Translator) moveTo(offset int, extend bool) {
	if extend {
		t.eng.SetSelection(t.eng.Selection().Extend(offset))
		return
	}
	t.eng.SetSelection(engine.Caret(offset))
}

// prevBoundary returns the nearest caret position strictly before offset:
// the previous grapheme start within a run, or the start of a marker the
// offset touches.
func (t *Translator) prevBoundary(offset int) int {
	if offset <= 0 {
		return 0
	}
	start := 0
	for _, n := range t.eng.Nodes() {
		end := start + n.Span()
		if offset > start && offset <= end {
			if run, ok := n.(engine.TextRun); ok {
				return start + prevGraphemeStart(run.Content, offset-start)
			}
			return start
		}
		start = end
	}
	return start
}

// nextBoundary mirrors prevBoundary in the forward direction.
func (t *Translator) nextBoundary(offset int) int {
	if offset < 0 {
		return 0
	}
	start := 0
	for _, n := range t.eng.Nodes() {
		end := start + n.Span()
		if offset >= start && offset < end {
			if run, ok := n.(engine.TextRun); ok {
				return start + nextGraphemeEnd(run.Content, offset-start)
			}
			return end
		}
		start = end
	}
	return start
}

func markerEndingAt(markers []engine.PlacedMarker, offset int) (engine.PlacedMarker, bool) {
	for _, pm := range markers {
		if pm.End == offset {
			return pm, true
		}
	}
	return engine.PlacedMarker{}, false
}

func markerStartingAt(markers []engine.PlacedMarker, offset int) (engine.PlacedMarker, bool) {
	for _, pm := range markers {
		if pm.Start == offset {
			return pm, true
		}
	}
	return engine.PlacedMarker{}, false
}

// prevGraphemeStart returns the start of the grapheme cluster preceding rel
// within s.
func prevGraphemeStart(s string, rel int) int {
	i, state := 0, -1
	for i < rel {
		cluster, _, _, next := uniseg.FirstGraphemeClusterInString(s[i:], state)
		if cluster == "" {
			break
		}
		if i+len(cluster) >= rel {
			break
		}
		i += len(cluster)
		state = next
	}
	return i
}

// nextGraphemeEnd returns the end of the grapheme cluster containing or
// starting at rel within s.
func nextGraphemeEnd(s string, rel int) int {
	i, state := 0, -1
	for i < len(s) {
		cluster, _, _, next := uniseg.FirstGraphemeClusterInString(s[i:], state)
		if cluster == "" {
			break
		}
		end := i + len(cluster)
		if end > rel {
			return end
		}
		i = end
		state = next
	}
	return len(s)
}
