package node

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Helpers to build test documents.

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func marker(id, num int) CitationMarker {
	return CitationMarker{
		ID:             id,
		CitationNumber: num,
		DocumentID:     "doc-1",
		Snippet:        "supporting snippet",
	}
}

// specDoc builds "OAuth 2.0 [1] is a secure protocol" with marker id 1.
func specDoc() *Document {
	return FromNodes([]Node{
		NewTextRun("OAuth 2.0 "),
		marker(1, 1),
		NewTextRun(" is a secure protocol"),
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Node
		want []Node
	}{
		{"empty", nil, []Node{}},
		{"merges adjacent runs", []Node{NewTextRun("ab"), NewTextRun("cd")}, []Node{NewTextRun("abcd")}},
		{"drops empty runs", []Node{NewTextRun(""), marker(1, 1), NewTextRun("")}, []Node{marker(1, 1)}},
		{
			"merges across dropped empties",
			[]Node{NewTextRun("a"), NewTextRun(""), NewTextRun("b")},
			[]Node{NewTextRun("ab")},
		},
		{
			"keeps runs separated by marker",
			[]Node{NewTextRun("a"), marker(1, 1), NewTextRun("b")},
			[]Node{NewTextRun("a"), marker(1, 1), NewTextRun("b")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDocumentFlattened(t *testing.T) {
	d := specDoc()
	if got, want := d.Text(), "OAuth 2.0 [1] is a secure protocol"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if got, want := d.Len(), len("OAuth 2.0 [1] is a secure protocol"); got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestMarkerSpanWidth(t *testing.T) {
	m := marker(7, 12)
	if got, want := m.Label(), "[12]"; got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
	if got := m.Span(); got != 4 {
		t.Errorf("Span() = %d, want 4", got)
	}
}

func TestLocate(t *testing.T) {
	d := specDoc()

	tests := []struct {
		name      string
		offset    int
		wantIndex int
		wantRel   int
		wantStart int
	}{
		{"document start", 0, 0, 0, 0},
		{"inside first run", 5, 0, 5, 0},
		{"marker start", 10, 1, 0, 10},
		{"inside marker", 11, 1, 1, 10},
		{"after marker", 13, 2, 0, 13},
		{"document end", 34, 3, 0, 34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := d.Locate(tt.offset)
			if err != nil {
				t.Fatalf("Locate(%d) error: %v", tt.offset, err)
			}
			if pos.Index != tt.wantIndex || pos.Rel != tt.wantRel || pos.Start != tt.wantStart {
				t.Errorf("Locate(%d) = {Index:%d Rel:%d Start:%d}, want {Index:%d Rel:%d Start:%d}",
					tt.offset, pos.Index, pos.Rel, pos.Start, tt.wantIndex, tt.wantRel, tt.wantStart)
			}
		})
	}

	if _, err := d.Locate(-1); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("Locate(-1) = %v, want ErrInvalidOffset", err)
	}
	if _, err := d.Locate(d.Len() + 1); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("Locate(past end) = %v, want ErrInvalidOffset", err)
	}
}

func TestInsertTextIntoRun(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("helloworld")})
	if err := d.InsertText(5, ", "); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	want := []Node{NewTextRun("hello, world")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTextAtMarkerBoundaries(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("ab"), marker(1, 1), NewTextRun("cd")})

	// Before the marker: joins the preceding run.
	if err := d.InsertText(2, "X"); err != nil {
		t.Fatalf("InsertText before marker: %v", err)
	}
	// After the marker: joins the following run.
	if err := d.InsertText(6, "Y"); err != nil {
		t.Fatalf("InsertText after marker: %v", err)
	}
	want := []Node{NewTextRun("abX"), marker(1, 1), NewTextRun("Ycd")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTextBetweenMarkers(t *testing.T) {
	d := FromNodes([]Node{marker(1, 1), marker(2, 2)})
	if err := d.InsertText(3, "mid"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	want := []Node{marker(1, 1), NewTextRun("mid"), marker(2, 2)}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTextIntoEmptyDocument(t *testing.T) {
	d := New()
	if err := d.InsertText(0, "hi"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	want := []Node{NewTextRun("hi")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertTextRejectsInsideMarker(t *testing.T) {
	d := specDoc()
	err := d.InsertText(11, "x")
	if !errors.Is(err, ErrInsideMarker) {
		t.Fatalf("InsertText inside marker = %v, want ErrInsideMarker", err)
	}
	if !errors.Is(err, ErrInvalidOffset) {
		t.Error("ErrInsideMarker should match ErrInvalidOffset")
	}
	// Failed ops leave the document unchanged.
	if d.Text() != "OAuth 2.0 [1] is a secure protocol" {
		t.Error("document mutated by failed insert")
	}
}

func TestInsertTextRejectsRuneSplit(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("héllo")})
	// "é" occupies bytes 1-2; offset 2 splits it.
	if err := d.InsertText(2, "x"); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("InsertText mid-rune = %v, want ErrInvalidOffset", err)
	}
}

func TestInsertTextRejectsInvalidUTF8(t *testing.T) {
	d := New()
	if err := d.InsertText(0, string([]byte{0xff, 0xfe})); !errors.Is(err, ErrInvalidText) {
		t.Errorf("InsertText invalid utf-8 = %v, want ErrInvalidText", err)
	}
}

func TestDeleteTextWithinRun(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("hello, world")})
	if err := d.DeleteText(5, 7); err != nil {
		t.Fatalf("DeleteText: %v", err)
	}
	want := []Node{NewTextRun("helloworld")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteTextWholeRunBetweenMarkers(t *testing.T) {
	d := FromNodes([]Node{marker(1, 1), NewTextRun("gone"), marker(2, 2)})
	if err := d.DeleteText(3, 7); err != nil {
		t.Fatalf("DeleteText: %v", err)
	}
	want := []Node{marker(1, 1), marker(2, 2)}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteTextRejectsMarkerOverlap(t *testing.T) {
	d := specDoc()

	tests := []struct {
		name       string
		start, end int
	}{
		{"range covers marker", 8, 15},
		{"range equals marker span", 10, 13},
		{"end inside marker", 8, 11},
		{"start inside marker", 12, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.DeleteText(tt.start, tt.end); !errors.Is(err, ErrInsideMarker) {
				t.Errorf("DeleteText(%d, %d) = %v, want ErrInsideMarker", tt.start, tt.end, err)
			}
			if d.Text() != "OAuth 2.0 [1] is a secure protocol" {
				t.Error("document mutated by failed delete")
			}
		})
	}
}

func TestDeleteTextInvalidRange(t *testing.T) {
	d := specDoc()
	if err := d.DeleteText(5, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("DeleteText(5, 2) = %v, want ErrInvalidRange", err)
	}
	if err := d.DeleteText(0, d.Len()+1); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("DeleteText past end = %v, want ErrInvalidOffset", err)
	}
}

func TestInsertMarkerSplitsRun(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("hello world")})
	if err := d.InsertMarker(5, marker(1, 1)); err != nil {
		t.Fatalf("InsertMarker: %v", err)
	}
	want := []Node{NewTextRun("hello"), marker(1, 1), NewTextRun(" world")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertMarkerAtBoundaries(t *testing.T) {
	d := FromNodes([]Node{NewTextRun("ab")})
	if err := d.InsertMarker(0, marker(1, 1)); err != nil {
		t.Fatalf("InsertMarker at start: %v", err)
	}
	if err := d.InsertMarker(d.Len(), marker(2, 2)); err != nil {
		t.Fatalf("InsertMarker at end: %v", err)
	}
	want := []Node{marker(1, 1), NewTextRun("ab"), marker(2, 2)}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertMarkerRejectsInsideMarker(t *testing.T) {
	d := specDoc()
	if err := d.InsertMarker(11, marker(2, 2)); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("InsertMarker inside marker = %v, want ErrInvalidOffset", err)
	}
}

func TestInsertMarkerRejectsDuplicateID(t *testing.T) {
	d := specDoc()
	if err := d.InsertMarker(0, marker(1, 9)); !errors.Is(err, ErrDuplicateMarker) {
		t.Errorf("InsertMarker duplicate id = %v, want ErrDuplicateMarker", err)
	}
}

func TestRemoveMarkerMergesRuns(t *testing.T) {
	d := specDoc()
	m, start, err := d.RemoveMarker(1)
	if err != nil {
		t.Fatalf("RemoveMarker: %v", err)
	}
	if m.ID != 1 {
		t.Errorf("removed marker id = %d, want 1", m.ID)
	}
	if start != 10 {
		t.Errorf("removed marker start = %d, want 10", start)
	}
	want := []Node{NewTextRun("OAuth 2.0  is a secure protocol")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveMarkerNotFound(t *testing.T) {
	d := specDoc()
	if _, _, err := d.RemoveMarker(42); !errors.Is(err, ErrMarkerNotFound) {
		t.Errorf("RemoveMarker(42) = %v, want ErrMarkerNotFound", err)
	}
}

func TestMarkers(t *testing.T) {
	d := specDoc()
	got := d.Markers()
	if len(got) != 1 {
		t.Fatalf("Markers() returned %d entries, want 1", len(got))
	}
	if got[0].Start != 10 || got[0].End != 13 {
		t.Errorf("marker span = [%d, %d), want [10, 13)", got[0].Start, got[0].End)
	}

	pm, ok := d.MarkerByID(1)
	if !ok || pm.Marker.CitationNumber != 1 {
		t.Errorf("MarkerByID(1) = %+v, %v", pm, ok)
	}
	if _, ok := d.MarkerByID(99); ok {
		t.Error("MarkerByID(99) should not be found")
	}
}

func TestRevisionBumpsOnMutation(t *testing.T) {
	d := New()
	rev := d.Revision()
	if err := d.InsertText(0, "a"); err != nil {
		t.Fatal(err)
	}
	if d.Revision() == rev {
		t.Error("revision not bumped by InsertText")
	}

	rev = d.Revision()
	if err := d.InsertText(5, "x"); !errors.Is(err, ErrInvalidOffset) {
		t.Fatal("expected invalid offset")
	}
	if d.Revision() != rev {
		t.Error("revision bumped by failed op")
	}
}

func TestReset(t *testing.T) {
	d := specDoc()
	d.Reset([]Node{NewTextRun("fresh "), NewTextRun("content")})
	want := []Node{NewTextRun("fresh content")}
	if diff := cmp.Diff(want, d.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}
