package queue

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](q *Queue[T]) []T {
	var out []T
	for {
		v, ok := q.Dequeue()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestPriorityWithStableTies(t *testing.T) {
	q := New[string]()
	q.Enqueue("A", 1)
	q.Enqueue("B", 0)
	q.Enqueue("C", 0)

	assert.Equal(t, []string{"B", "C", "A"}, drain(q))
}

func TestEqualPrioritiesKeepInsertionOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i, 0)
	}
	got := drain(q)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestNonDecreasingPriority(t *testing.T) {
	type entry struct{ prio, seq int }
	rng := rand.New(rand.NewSource(7))
	q := New[entry]()
	for i := 0; i < 500; i++ {
		p := rng.Intn(5)
		q.Enqueue(entry{p, i}, p)
	}

	got := drain(q)
	require.Len(t, got, 500)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		require.LessOrEqual(t, prev.prio, cur.prio)
		if prev.prio == cur.prio {
			require.Less(t, prev.seq, cur.seq, "equal priorities must stay FIFO")
		}
	}
}

func TestEmptyAndSingleUse(t *testing.T) {
	q := New[string]()
	assert.True(t, q.IsEmpty())
	_, ok := q.Dequeue()
	assert.False(t, ok)

	q.Enqueue("only", 0)
	assert.Equal(t, 1, q.Len())
	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "only", v)

	v, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "only", v)

	_, ok = q.Dequeue()
	assert.False(t, ok, "a dequeued item is never returned twice")
	assert.True(t, q.IsEmpty())
}

func TestWithOrderSwapsKey(t *testing.T) {
	type box struct {
		name  string
		right float64
	}
	byRightEdge := func(a, b *Item[box]) bool { return a.Value.right < b.Value.right }

	q := New[box](WithOrder[box](byRightEdge))
	q.Enqueue(box{"far", 90}, 0)
	q.Enqueue(box{"near", 10}, 5)
	q.Enqueue(box{"near-too", 10}, 1)
	q.Enqueue(box{"mid", 50}, 0)

	var names []string
	for _, b := range drain(q) {
		names = append(names, b.name)
	}
	assert.Equal(t, []string{"near", "near-too", "mid", "far"}, names)
}
