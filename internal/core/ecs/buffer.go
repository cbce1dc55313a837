package ecs

// Buffer is a per-entity dynamic array stored as a component. Its presence is
// what callers test for; an empty Buffer still counts as existing.
type Buffer[T any] struct {
	Items []T
}

func HasBuffer[T any](w *World, id EntityID) bool {
	return Has[Buffer[T]](w, id)
}

// EnsureBuffer attaches an empty Buffer[T] to id unless one is already
// present. It reports whether a buffer was created.
func EnsureBuffer[T any](w *World, id EntityID) (bool, error) {
	if !w.pool.Alive(id) {
		return false, ErrEntityNotFound
	}
	s := StoreOf[Buffer[T]](w)
	if s.Has(id) {
		return false, nil
	}
	s.Set(id, &Buffer[T]{})
	return true, nil
}

// BufferOf returns id's buffer, if any.
func BufferOf[T any](w *World, id EntityID) (*Buffer[T], bool) {
	return Get[Buffer[T]](w, id)
}
