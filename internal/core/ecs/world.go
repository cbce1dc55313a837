package ecs

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
)

var (
	ErrEntityNotFound    = errors.New("entity does not exist")
	ErrReferenceNotFound = errors.New("reference not found")
)

// RefIndex addresses a slot in an entity's reference table. A reference is a
// relation only: the owner does not keep the target alive.
type RefIndex int

// NoRef marks an unset reference slot.
const NoRef RefIndex = -1

// World is the entity store. It owns the entity pool, one store per component
// type, the per-entity reference tables and a deferred destruction queue.
//
// A World is not safe for concurrent use; it is driven by a single tick loop.
type World struct {
	id           uuid.UUID
	pool         *EntityPool
	stores       map[reflect.Type]Removable
	references   map[EntityID][]EntityID
	destroyQueue []EntityID
	structural   uint64
}

func NewWorld() *World {
	return &World{
		id:           uuid.New(),
		pool:         NewEntityPool(),
		stores:       make(map[reflect.Type]Removable, 16),
		references:   make(map[EntityID][]EntityID, 64),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

// ID identifies this world. Caches that must not leak across worlds use it as
// their scope.
func (w *World) ID() uuid.UUID { return w.id }

func (w *World) Pool() *EntityPool { return w.pool }

// Version changes whenever an entity is created or destroyed or a component
// is added to or removed from an entity. Replacing a component value in place
// does not change it.
func (w *World) Version() uint64 { return w.structural }

func (w *World) CreateEntity() EntityID {
	w.structural++
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// DestroyEntity removes every component and reference of id immediately.
func (w *World) DestroyEntity(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(id)
	}
	delete(w.references, id)
	w.pool.Destroy(id)
	w.structural++
	return true
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// FlushDestroyQueue destroys all queued entities and clears their components.
func (w *World) FlushDestroyQueue() int {
	n := 0
	for _, id := range w.destroyQueue {
		if w.DestroyEntity(id) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// AddReference appends target to owner's reference table and returns its slot.
func (w *World) AddReference(owner, target EntityID) (RefIndex, error) {
	if !w.pool.Alive(owner) {
		return NoRef, ErrEntityNotFound
	}
	refs := w.references[owner]
	w.references[owner] = append(refs, target)
	return RefIndex(len(refs)), nil
}

// Reference returns the target stored at slot idx of owner's table. It does
// not check whether the target is still alive.
func (w *World) Reference(owner EntityID, idx RefIndex) (EntityID, error) {
	refs, ok := w.references[owner]
	if !ok || idx < 0 || int(idx) >= len(refs) {
		return NoEntity, ErrReferenceNotFound
	}
	return refs[idx], nil
}

// References returns a copy of owner's reference table.
func (w *World) References(owner EntityID) []EntityID {
	refs := w.references[owner]
	out := make([]EntityID, len(refs))
	copy(out, refs)
	return out
}
