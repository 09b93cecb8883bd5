package citation

import "slices"

// Registry maps marker ids to citation records for the lifetime of a draft
// session. It is owned by the engine, mutated only by marker-level
// operations, and replaced wholesale when a draft is (re)loaded.
//
// Registry is not safe for concurrent use; the engine facade serializes
// access to it.
type Registry struct {
	records map[int]Record
	nextID  int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[int]Record),
		nextID:  1,
	}
}

// AllocateID returns a fresh marker id, never previously handed out or
// stored in this registry.
func (r *Registry) AllocateID() int {
	id := r.nextID
	r.nextID++
	return id
}

// Put stores a record under the given id, replacing any existing entry.
func (r *Registry) Put(id int, rec Record) {
	r.records[id] = rec
	if id >= r.nextID {
		r.nextID = id + 1
	}
}

// Get returns the record for a marker id.
func (r *Registry) Get(id int) (Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Has reports whether the registry holds an entry for id.
func (r *Registry) Has(id int) bool {
	_, ok := r.records[id]
	return ok
}

// Remove deletes and returns the record for a marker id.
func (r *Registry) Remove(id int) (Record, bool) {
	rec, ok := r.records[id]
	if ok {
		delete(r.records, id)
	}
	return rec, ok
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.records)
}

// IDs returns all marker ids in ascending order.
func (r *Registry) IDs() []int {
	ids := make([]int, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Refresh replaces the whole registry content. The id allocator continues
// past the highest id present.
func (r *Registry) Refresh(entries map[int]Record) {
	r.records = make(map[int]Record, len(entries))
	r.nextID = 1
	for id, rec := range entries {
		r.records[id] = rec
		if id >= r.nextID {
			r.nextID = id + 1
		}
	}
}
