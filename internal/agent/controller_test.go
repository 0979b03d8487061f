package agent

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

func builtin(t *testing.T, name string) plan.Planner {
	t.Helper()
	for _, p := range plan.Builtins() {
		if p.Name() == name {
			return p
		}
	}
	t.Fatalf("no builtin %q", name)
	return nil
}

func newMatch(t *testing.T, p plan.Planner) *Controller {
	t.Helper()
	return NewMatch(MatchConfig{Self: 1, Seed: 42, Width: 1024, Height: 1024, Planner: p}, zaptest.NewLogger(t))
}

func TestEndToEndCooldownScenario(t *testing.T) {
	c := newMatch(t, builtin(t, "first"))

	_, ok := c.Advance(model.Snapshot{Tick: 0})
	assert.False(t, ok, "planning tick emits nothing")
	assert.True(t, c.Planned())
	require.Equal(t, 10, c.Pending())

	cmd, ok := c.Advance(model.Snapshot{Tick: 1})
	require.True(t, ok)
	assert.Equal(t, command.KindSelectCategory, cmd.Kind)
	assert.Equal(t, model.Helicopter, cmd.Category)

	_, ok = c.Advance(model.Snapshot{Tick: 2, Cooldown: 3})
	assert.False(t, ok)
	_, ok = c.Advance(model.Snapshot{Tick: 3, Cooldown: 2})
	assert.False(t, ok)
	_, ok = c.Advance(model.Snapshot{Tick: 4, Cooldown: 1})
	assert.False(t, ok)

	cmd, ok = c.Advance(model.Snapshot{Tick: 5})
	require.True(t, ok)
	assert.Equal(t, command.Move(512, 512), cmd)
	assert.Equal(t, 2, c.Emitted())
	assert.Equal(t, 8, c.Pending())
}

func TestAtMostOneCommandPerTick(t *testing.T) {
	c := newMatch(t, builtin(t, "first"))
	rng := rand.New(rand.NewSource(3))

	emitted := 0
	for tick := 0; tick < 60; tick++ {
		cooldown := 0
		if rng.Intn(3) == 0 {
			cooldown = rng.Intn(5) + 1
		}
		before := c.Pending()
		_, ok := c.Advance(model.Snapshot{Tick: tick, Cooldown: cooldown})
		if ok {
			emitted++
			assert.Equal(t, before-1, c.Pending())
			assert.Zero(t, cooldown, "nothing goes out under cooldown")
		}
	}
	assert.Equal(t, 10, emitted)
	assert.Zero(t, c.Pending())
}

func TestPlanningHappensOnFirstObservedTick(t *testing.T) {
	c := newMatch(t, builtin(t, "scale"))
	fighters := []model.NewUnit{
		{ID: 1, Owner: 1, Category: model.Fighter, X: 100, Y: 100, Vitality: 100},
		{ID: 2, Owner: 1, Category: model.Fighter, X: 300, Y: 100, Vitality: 100},
	}
	_, ok := c.Advance(model.Snapshot{Tick: 7, NewUnits: fighters})
	assert.False(t, ok)
	assert.Equal(t, 2, c.Pending())

	_, ok = c.Advance(model.Snapshot{Tick: 8})
	require.True(t, ok)
	cmd, ok := c.Advance(model.Snapshot{Tick: 9})
	require.True(t, ok)
	assert.Equal(t, command.Scale(200, 100, 4), cmd)
}

func TestPlannerFailureIdles(t *testing.T) {
	failing := plan.PlannerFunc{ID: "failing", Fn: func(_ *plan.Context, b *plan.Builder) error {
		b.Add(command.Move(1, 1), 0)
		return errors.New("no formation")
	}}
	c := newMatch(t, failing)

	var failed []PlanFailed
	OnEvent(c, func(e PlanFailed) { failed = append(failed, e) })
	var exhausted int
	OnEvent(c, func(PlanExhausted) { exhausted++ })

	c.Advance(model.Snapshot{Tick: 0})
	require.Len(t, failed, 1)
	assert.Equal(t, "failing", failed[0].Planner)
	assert.Equal(t, 1, failed[0].Discarded)
	assert.Zero(t, c.Pending())

	for tick := 1; tick < 4; tick++ {
		_, ok := c.Advance(model.Snapshot{Tick: tick})
		assert.False(t, ok)
	}
	assert.Equal(t, 1, exhausted)
}

func TestNilPlannerIdles(t *testing.T) {
	c := newMatch(t, nil)
	c.Advance(model.Snapshot{Tick: 0})
	_, ok := c.Advance(model.Snapshot{Tick: 1})
	assert.False(t, ok)
}

func TestEventsDuringTick(t *testing.T) {
	c := newMatch(t, builtin(t, "first"))
	var stalls []CooldownStall
	var emitted []CommandEmitted
	var reconciled []EntitiesReconciled
	OnEvent(c, func(e CooldownStall) { stalls = append(stalls, e) })
	OnEvent(c, func(e CommandEmitted) { emitted = append(emitted, e) })
	OnEvent(c, func(e EntitiesReconciled) { reconciled = append(reconciled, e) })

	c.Advance(model.Snapshot{Tick: 0, NewUnits: []model.NewUnit{{ID: 5, Owner: 1, Category: model.Tank, Vitality: 100}}})
	c.Advance(model.Snapshot{Tick: 1, Cooldown: 2})
	c.Advance(model.Snapshot{Tick: 2})

	require.Len(t, reconciled, 3)
	assert.Equal(t, 1, reconciled[0].Stats.Created)
	assert.Equal(t, 1, reconciled[2].Tracked)
	require.Len(t, stalls, 1)
	assert.Equal(t, CooldownStall{Tick: 1, Cooldown: 2, Pending: 10}, stalls[0])
	require.Len(t, emitted, 1)
	assert.Equal(t, 1, emitted[0].Seq)
	assert.Equal(t, 2, emitted[0].Tick)
}

func TestDeterministicDigest(t *testing.T) {
	run := func() (string, []command.Command) {
		c := newMatch(t, builtin(t, "first"))
		var out []command.Command
		for tick := 0; tick < 20; tick++ {
			snap := model.Snapshot{Tick: tick, Cooldown: tick % 3}
			if tick == 0 {
				snap.NewUnits = []model.NewUnit{{ID: 1, Owner: 1, Category: model.IFV, X: 10, Y: 10, Vitality: 100}}
			}
			if cmd, ok := c.Advance(snap); ok {
				out = append(out, cmd)
			}
		}
		return c.DigestHex(), out
	}
	d1, cmds1 := run()
	d2, cmds2 := run()
	assert.Equal(t, cmds1, cmds2)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	empty := newMatch(t, nil)
	assert.NotEqual(t, d1, empty.DigestHex())
}

func TestTrackerStateFollowsSnapshots(t *testing.T) {
	c := newMatch(t, nil)
	c.Advance(model.Snapshot{Tick: 0, NewUnits: []model.NewUnit{
		{ID: 1, Owner: 1, Category: model.Tank, X: 1, Y: 1, Vitality: 100},
		{ID: 2, Owner: 2, Category: model.Tank, X: 2, Y: 2, Vitality: 100},
	}})
	c.Advance(model.Snapshot{Tick: 1, Updates: []model.UnitUpdate{{ID: 2, Vitality: 0}}})

	assert.Equal(t, 1, c.Tracker().Len())
	assert.Len(t, c.Tracker().Query(world.Enemy), 0)
}
