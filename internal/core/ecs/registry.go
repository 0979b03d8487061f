package ecs

// Registry tracks all component stores and supports bulk cleanup on entity destroy.
type Registry[K comparable] struct {
	stores []Removable[K]
}

func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{
		stores: make([]Removable[K], 0, 4),
	}
}

// Register adds a component store to the registry.
func (r *Registry[K]) Register(store Removable[K]) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store.
// Removing an id that no store holds is a no-op.
func (r *Registry[K]) RemoveAll(id K) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}
