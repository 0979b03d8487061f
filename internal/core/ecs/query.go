package ecs

import "cmp"

// Sorted2 visits entities that have both component A and B, in ascending id
// order. It walks the smaller store's keys and checks the other one.
func Sorted2[K cmp.Ordered, A, B any](sa *PtrComponentStore[K, A], sb *PtrComponentStore[K, B], fn func(K, *A, *B)) {
	small := sa.Keys()
	if sb.Len() < sa.Len() {
		small = sb.Keys()
	}
	for _, id := range small {
		a, okA := sa.data[id]
		b, okB := sb.data[id]
		if okA && okB {
			fn(id, a, b)
		}
	}
}
