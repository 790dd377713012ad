package relation

import (
	"sort"

	"morph/internal/datamodel"
)

// indexEntry is one (model, model, relation) tuple in an ordered index.
type indexEntry struct {
	m1, m2 datamodel.ModelID
	id     ID
}

// Store holds every relation inferred from a declaration table.
//
// Two ordered indexes support range queries: forward is keyed
// (modelA, modelB, id) and answers "relations from this model" (the
// model holds the foreign key), back is keyed (modelB, modelA, id) and
// answers "relations to this model". Every relation appears in exactly
// one entry of each index. The store is read-only after inference and
// safe to share between goroutines.
type Store struct {
	relations []Relation

	forward []indexEntry
	back    []indexEntry
}

// Len returns the number of relations in the store.
func (s *Store) Len() int { return len(s.relations) }

// Get returns the relation with the given id. The id must come from
// this store.
func (s *Store) Get(id ID) *Relation {
	return &s.relations[id]
}

// All iterates every relation in creation order.
func (s *Store) All(fn func(ID, *Relation)) {
	for i := range s.relations {
		fn(ID(i), &s.relations[i])
	}
}

// FromModel returns the ids of all relations where the given model
// plays the model A role, in index order. The scan touches only
// matching entries.
func (s *Store) FromModel(model datamodel.ModelID) []ID {
	return scan(s.forward, model)
}

// ToModel returns the ids of all relations where the given model plays
// the model B role, in index order.
func (s *Store) ToModel(model datamodel.ModelID) []ID {
	return scan(s.back, model)
}

func scan(index []indexEntry, model datamodel.ModelID) []ID {
	lo := sort.Search(len(index), func(i int) bool { return index[i].m1 >= model })
	var ids []ID
	for i := lo; i < len(index) && index[i].m1 == model; i++ {
		ids = append(ids, index[i].id)
	}
	return ids
}

func (s *Store) insert(r Relation) ID {
	id := ID(len(s.relations))
	s.relations = append(s.relations, r)
	s.forward = append(s.forward, indexEntry{m1: r.ModelA, m2: r.ModelB, id: id})
	s.back = append(s.back, indexEntry{m1: r.ModelB, m2: r.ModelA, id: id})
	return id
}

// seal sorts both indexes. Called once at the end of inference; the
// store must not be mutated afterwards.
func (s *Store) seal() {
	sortIndex(s.forward)
	sortIndex(s.back)
}

func sortIndex(index []indexEntry) {
	sort.Slice(index, func(i, j int) bool {
		a, b := index[i], index[j]
		if a.m1 != b.m1 {
			return a.m1 < b.m1
		}
		if a.m2 != b.m2 {
			return a.m2 < b.m2
		}
		return a.id < b.id
	})
}
