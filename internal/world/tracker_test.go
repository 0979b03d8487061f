package world

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vanguard/agent/internal/model"
)

const me model.PlayerID = 1

func newTracker(t *testing.T, policy UpdatePolicy) *Tracker {
	t.Helper()
	return NewTracker(me, policy, zaptest.NewLogger(t))
}

func TestReconcileCreatesAndStamps(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	st := tr.Reconcile([]model.NewUnit{
		{ID: 1, Owner: me, Category: model.Tank, X: 10, Y: 20, Vitality: 100},
		{ID: 2, Owner: 2, Category: model.Fighter, X: 500, Y: 500, Vitality: 70},
	}, nil, 0)

	assert.Equal(t, ReconcileStats{Created: 2}, st)
	e, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, Entity{ID: 1, Owner: me, Category: model.Tank, X: 10, Y: 20, Vitality: 100, UpdatedAt: 0}, e)
}

func TestReconcileMergesUpdates(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	tr.Reconcile([]model.NewUnit{{ID: 1, Owner: me, Category: model.IFV, X: 1, Y: 1, Vitality: 100}}, nil, 0)

	st := tr.Reconcile(nil, []model.UnitUpdate{{ID: 1, X: 5, Y: 6, Vitality: 40}}, 3)
	assert.Equal(t, ReconcileStats{Updated: 1}, st)

	e, ok := tr.Get(1)
	require.True(t, ok)
	assert.Equal(t, model.IFV, e.Category, "update keeps creation-only fields")
	assert.Equal(t, me, e.Owner)
	assert.Equal(t, 5.0, e.X)
	assert.Equal(t, 6.0, e.Y)
	assert.Equal(t, 40, e.Vitality)
	assert.Equal(t, 3, e.UpdatedAt)
}

func TestZeroVitalityRemovesRegardlessOfHistory(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for round := 0; round < 20; round++ {
		tr := newTracker(t, CreateIfAbsent)
		tr.Reconcile([]model.NewUnit{{ID: 9, Owner: me, Category: model.ARRV, Vitality: 100}}, nil, 0)

		updates := 1 + rng.Intn(10)
		for i := 1; i <= updates; i++ {
			tr.Reconcile(nil, []model.UnitUpdate{{ID: 9, X: float64(i), Y: float64(i), Vitality: 1 + rng.Intn(99)}}, i)
		}
		st := tr.Reconcile(nil, []model.UnitUpdate{{ID: 9, Vitality: 0}}, updates+1)
		require.Equal(t, 1, st.Removed)

		for tick := updates + 2; tick < updates+5; tick++ {
			tr.Reconcile(nil, nil, tick)
			_, ok := tr.Get(9)
			require.False(t, ok)
			require.Empty(t, tr.Query(Any))
			require.Empty(t, tr.Query(Ally, model.ARRV))
			require.Empty(t, tr.Near(0, 0, 1000, Any))
		}
	}
}

func TestRemovingAbsentUnitIsNoop(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	st := tr.Reconcile(nil, []model.UnitUpdate{{ID: 42, Vitality: 0}}, 1)
	assert.Equal(t, ReconcileStats{Ignored: 1}, st)
	assert.Equal(t, 0, tr.Len())
}

func TestUnknownUpdatePolicies(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		tr := newTracker(t, CreateIfAbsent)
		st := tr.Reconcile(nil, []model.UnitUpdate{{ID: 5, X: 3, Y: 4, Vitality: 10}}, 2)
		assert.Equal(t, 1, st.Created)

		e, ok := tr.Get(5)
		require.True(t, ok)
		assert.Equal(t, model.CategoryUnknown, e.Category)
		assert.Equal(t, model.OwnerUnknown, e.Owner)
		assert.Equal(t, 2, e.UpdatedAt)
		assert.Empty(t, tr.Query(Ally), "an implicit unit never counts as ours")
	})
	t.Run("create keeps implicit units out of enemy queries", func(t *testing.T) {
		tr := newTracker(t, CreateIfAbsent)
		tr.Reconcile([]model.NewUnit{{ID: 1, Owner: 2, Category: model.Tank, X: 100, Y: 100, Vitality: 1}}, nil, 0)
		tr.Reconcile(nil, []model.UnitUpdate{{ID: 99, X: 900, Y: 900, Vitality: 10}}, 1)

		enemies := tr.Query(Enemy)
		require.Len(t, enemies, 1)
		assert.Equal(t, model.EntityID(1), enemies[0].ID)
		assert.Empty(t, tr.Near(900, 900, 10, Enemy))
		assert.Len(t, tr.Near(900, 900, 10, Any), 1)
		assert.Len(t, tr.Query(Any), 2)
	})
	t.Run("drop", func(t *testing.T) {
		tr := newTracker(t, DropUnknown)
		st := tr.Reconcile(nil, []model.UnitUpdate{{ID: 5, X: 3, Y: 4, Vitality: 10}}, 2)
		assert.Equal(t, ReconcileStats{Ignored: 1}, st)
		assert.Equal(t, 0, tr.Len())
	})
}

func TestQueryFilters(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	tr.Reconcile([]model.NewUnit{
		{ID: 4, Owner: me, Category: model.Tank, Vitality: 1},
		{ID: 1, Owner: me, Category: model.Fighter, Vitality: 1},
		{ID: 3, Owner: 2, Category: model.Tank, Vitality: 1},
		{ID: 2, Owner: 2, Category: model.Helicopter, Vitality: 1},
	}, nil, 0)

	ids := func(es []Entity) []model.EntityID {
		var out []model.EntityID
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []model.EntityID{1, 2, 3, 4}, ids(tr.Query(Any)))
	assert.Equal(t, []model.EntityID{1, 4}, ids(tr.Query(Ally)))
	assert.Equal(t, []model.EntityID{2, 3}, ids(tr.Query(Enemy)))
	assert.Equal(t, []model.EntityID{3, 4}, ids(tr.Query(Any, model.Tank)))
	assert.Equal(t, []model.EntityID{4}, ids(tr.Query(Ally, model.Tank)))
	assert.Equal(t, []model.EntityID{1, 2}, ids(tr.Query(Any, model.Fighter, model.Helicopter)))
	assert.Empty(t, tr.Query(Enemy, model.IFV))
}

func TestQueryIsIdempotentAndReadOnly(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	for i := 0; i < 50; i++ {
		tr.Reconcile([]model.NewUnit{{ID: model.EntityID(i), Owner: model.PlayerID(i % 2), Category: model.Categories[i%5], X: float64(i), Vitality: 1}}, nil, 0)
	}

	first := tr.Query(Any)
	first[0].X = -1 // callers own their copy
	second := tr.Query(Any)
	third := tr.Query(Any)

	assert.Equal(t, second, third)
	assert.Equal(t, 0.0, second[0].X)
	assert.Len(t, second, 50)
}

func TestNearUsesCellIndex(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	tr.Reconcile([]model.NewUnit{
		{ID: 1, Owner: me, Category: model.Tank, X: 100, Y: 100, Vitality: 1},
		{ID: 2, Owner: me, Category: model.Tank, X: 110, Y: 100, Vitality: 1},
		{ID: 3, Owner: 2, Category: model.Tank, X: 105, Y: 95, Vitality: 1},
		{ID: 4, Owner: me, Category: model.Tank, X: 400, Y: 400, Vitality: 1},
	}, nil, 0)

	near := tr.Near(100, 100, 20, Ally)
	require.Len(t, near, 2)
	assert.Equal(t, model.EntityID(1), near[0].ID)
	assert.Equal(t, model.EntityID(2), near[1].ID)

	tr.Reconcile(nil, []model.UnitUpdate{{ID: 4, X: 101, Y: 101, Vitality: 1}}, 1)
	assert.Len(t, tr.Near(100, 100, 20, Ally), 3, "moved unit is re-bucketed")
	assert.Len(t, tr.Near(100, 100, 1e9, Any), 4)
}

func TestNearRejectsNaNPositions(t *testing.T) {
	tr := newTracker(t, CreateIfAbsent)
	tr.Reconcile([]model.NewUnit{
		{ID: 1, Owner: me, Category: model.Tank, X: math.NaN(), Y: 5, Vitality: 1},
		{ID: 2, Owner: me, Category: model.Tank, X: 5, Y: 5, Vitality: 1},
	}, nil, 0)

	near := tr.Near(0, 0, 10, Any)
	require.Len(t, near, 1)
	assert.Equal(t, model.EntityID(2), near[0].ID)
	assert.Len(t, tr.Near(0, 0, 1e12, Any), 1)
	assert.Equal(t, 2, tr.Len())
}

func TestParsers(t *testing.T) {
	o, err := ParseOwnership("enemy")
	require.NoError(t, err)
	assert.Equal(t, Enemy, o)
	_, err = ParseOwnership("neutral")
	assert.Error(t, err)

	p, err := ParseUpdatePolicy("drop")
	require.NoError(t, err)
	assert.Equal(t, DropUnknown, p)
	_, err = ParseUpdatePolicy("maybe")
	assert.Error(t, err)
}
