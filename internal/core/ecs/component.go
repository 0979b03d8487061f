package ecs

import (
	"cmp"
	"slices"
)

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable[K comparable] interface {
	Remove(id K)
}

// PtrComponentStore is a generic typed map store for ECS components keyed by
// a host-assigned identity. Pure generics, no reflect.
type PtrComponentStore[K cmp.Ordered, T any] struct {
	data map[K]*T
}

func NewPtrComponentStore[K cmp.Ordered, T any]() *PtrComponentStore[K, T] {
	return &PtrComponentStore[K, T]{
		data: make(map[K]*T, 256),
	}
}

func (s *PtrComponentStore[K, T]) Set(id K, c *T) {
	s.data[id] = c
}

func (s *PtrComponentStore[K, T]) Get(id K) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

func (s *PtrComponentStore[K, T]) Remove(id K) {
	delete(s.data, id)
}

func (s *PtrComponentStore[K, T]) Len() int {
	return len(s.data)
}

// Keys returns all ids in ascending order.
func (s *PtrComponentStore[K, T]) Keys() []K {
	keys := make([]K, 0, len(s.data))
	for id := range s.data {
		keys = append(keys, id)
	}
	slices.Sort(keys)
	return keys
}
