package citation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func record(num int, docID string) Record {
	return Record{CitationNumber: num, DocumentID: docID, Snippet: "excerpt"}
}

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()
	r.Put(1, record(1, "doc-a"))
	r.Put(2, record(2, "doc-b"))

	got, ok := r.Get(1)
	if !ok || got.DocumentID != "doc-a" {
		t.Errorf("Get(1) = %+v, %v", got, ok)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	removed, ok := r.Remove(1)
	if !ok || removed.DocumentID != "doc-a" {
		t.Errorf("Remove(1) = %+v, %v", removed, ok)
	}
	if r.Has(1) {
		t.Error("id 1 still present after Remove")
	}
	if _, ok := r.Remove(1); ok {
		t.Error("second Remove(1) should report missing")
	}
}

func TestRegistryAllocateID(t *testing.T) {
	r := NewRegistry()
	if id := r.AllocateID(); id != 1 {
		t.Errorf("first AllocateID = %d, want 1", id)
	}
	if id := r.AllocateID(); id != 2 {
		t.Errorf("second AllocateID = %d, want 2", id)
	}

	// Explicit Put with a high id pushes the allocator past it.
	r.Put(10, record(3, "doc-c"))
	if id := r.AllocateID(); id != 11 {
		t.Errorf("AllocateID after Put(10) = %d, want 11", id)
	}
}

func TestRegistryRefresh(t *testing.T) {
	r := NewRegistry()
	r.Put(1, record(1, "doc-a"))

	r.Refresh(map[int]Record{
		3: record(1, "doc-x"),
		7: record(2, "doc-y"),
	})

	if r.Has(1) {
		t.Error("old entry survived Refresh")
	}
	if diff := cmp.Diff([]int{3, 7}, r.IDs()); diff != "" {
		t.Errorf("IDs mismatch (-want +got):\n%s", diff)
	}
	if id := r.AllocateID(); id != 8 {
		t.Errorf("AllocateID after Refresh = %d, want 8", id)
	}
}

func TestRegistryRefreshEmpty(t *testing.T) {
	r := NewRegistry()
	r.Put(5, record(1, "doc-a"))
	r.Refresh(nil)
	if r.Len() != 0 {
		t.Errorf("Len() after empty Refresh = %d, want 0", r.Len())
	}
	if id := r.AllocateID(); id != 1 {
		t.Errorf("AllocateID after empty Refresh = %d, want 1", id)
	}
}
