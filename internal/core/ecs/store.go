package ecs

// Removable is implemented by all component stores so the World can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(id EntityID) bool
	Len() int
}

// Store is a dense, generic component store. Components live in a packed
// slice; iteration follows that slice, which is what "storage order" means
// for every query in this package. Removal swaps the last element into the
// hole, so order is stable only while no component of this type is removed.
type Store[T any] struct {
	index map[EntityID]int
	ids   []EntityID
	data  []*T

	// structural is bumped whenever membership changes. Shared with the World.
	structural *uint64
	version    uint64
}

func NewStore[T any]() *Store[T] {
	var version uint64
	return newStore[T](&version)
}

func newStore[T any](structural *uint64) *Store[T] {
	return &Store[T]{
		index:      make(map[EntityID]int, 64),
		ids:        make([]EntityID, 0, 64),
		data:       make([]*T, 0, 64),
		structural: structural,
	}
}

// Set adds or replaces the component for id. Replacing an existing component
// is not a structural change.
func (s *Store[T]) Set(id EntityID, c *T) {
	if i, ok := s.index[id]; ok {
		s.data[i] = c
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
	s.data = append(s.data, c)
	s.version++
	*s.structural++
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.data[i], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Remove(id EntityID) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.ids) - 1
	if i != last {
		s.ids[i] = s.ids[last]
		s.data[i] = s.data[last]
		s.index[s.ids[i]] = i
	}
	s.data[last] = nil
	s.ids = s.ids[:last]
	s.data = s.data[:last]
	delete(s.index, id)
	s.version++
	*s.structural++
	return true
}

// Version changes whenever an entity gains or loses this component. A scan
// over an IDs snapshot stays valid while Version is unchanged.
func (s *Store[T]) Version() uint64 { return s.version }

func (s *Store[T]) Len() int {
	return len(s.ids)
}

// IDs returns a snapshot of the entities in storage order. The snapshot is
// safe to range over while the store is being mutated.
func (s *Store[T]) IDs() []EntityID {
	out := make([]EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Each visits components in storage order. fn must not add or remove
// components of this type; use IDs for scans that mutate.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	for i, id := range s.ids {
		fn(id, s.data[i])
	}
}
