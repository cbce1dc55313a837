package ecs

import "reflect"

// StoreOf returns the store for component type T, creating and registering
// it on first use.
func StoreOf[T any](w *World) *Store[T] {
	t := reflect.TypeFor[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	s := newStore[T](&w.structural)
	w.stores[t] = s
	return s
}

func Get[T any](w *World, id EntityID) (*T, bool) {
	return StoreOf[T](w).Get(id)
}

func Has[T any](w *World, id EntityID) bool {
	return StoreOf[T](w).Has(id)
}

// Set adds or replaces component T on a live entity.
func Set[T any](w *World, id EntityID, c *T) error {
	if !w.pool.Alive(id) {
		return ErrEntityNotFound
	}
	StoreOf[T](w).Set(id, c)
	return nil
}

func Remove[T any](w *World, id EntityID) bool {
	return StoreOf[T](w).Remove(id)
}

// Query returns a snapshot, in storage order, of the entities carrying T.
func Query[T any](w *World) []EntityID {
	return StoreOf[T](w).IDs()
}

// Each2 iterates over entities that have both component A and B, in the
// storage order of A.
func Each2[A, B any](w *World, fn func(EntityID, *A, *B)) {
	sb := StoreOf[B](w)
	StoreOf[A](w).Each(func(id EntityID, a *A) {
		if b, ok := sb.Get(id); ok {
			fn(id, a, b)
		}
	})
}
