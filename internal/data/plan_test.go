package data

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/plan"
	"github.com/vanguard/agent/internal/world"
)

const pincer = `
plans:
  - name: pincer
    description: split the tanks and close on the enemy
    steps:
      - action: select_region
        category: tank
        half: left
      - action: assign_group
        group: 1
      - action: select_region
        category: tank
        half: right
      - action: assign_group
        group: 2
      - action: select_group
        group: 1
      - action: move
        dx_frac: 0.25
        dy: -10
      - action: strike
        category: tank
      - action: select_category
        category: fighter
        area: world
      - action: rotate
        angle: 3.14159
`

func newContext(t *testing.T, units ...model.NewUnit) *plan.Context {
	t.Helper()
	tr := world.NewTracker(1, world.CreateIfAbsent, zaptest.NewLogger(t))
	tr.Reconcile(units, nil, 0)
	return plan.NewContext(plan.Env{Self: 1, Width: 1000, Height: 1000}, 0, tr)
}

func TestParsePlans(t *testing.T) {
	defs, err := ParsePlans([]byte(pincer))
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "pincer", defs[0].Name)
	assert.Len(t, defs[0].Steps, 9)
}

func TestParsePlansRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown action":  "plans: [{name: a, steps: [{action: teleport}]}]",
		"group missing":   "plans: [{name: a, steps: [{action: assign_group}]}]",
		"group too large": "plans: [{name: a, steps: [{action: select_group, group: 101}]}]",
		"bad factor":      "plans: [{name: a, steps: [{action: scale, factor: 0}]}]",
		"no steps":        "plans: [{name: a, steps: []}]",
		"unknown field":   "plans: [{name: a, steps: [{action: move, speed: 3}]}]",
		"bad name":        "plans: [{name: 'A b', steps: [{action: move}]}]",
		"any category":    "plans: [{name: a, steps: [{action: select_category, category: any}]}]",
		"not yaml":        "plans: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlans([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestDeclarativePlanner(t *testing.T) {
	defs, err := ParsePlans([]byte(pincer))
	require.NoError(t, err)
	ctx := newContext(t,
		model.NewUnit{ID: 1, Owner: 1, Category: model.Tank, X: 100, Y: 100, Vitality: 100},
		model.NewUnit{ID: 2, Owner: 1, Category: model.Tank, X: 300, Y: 200, Vitality: 100},
		model.NewUnit{ID: 3, Owner: 2, Category: model.Tank, X: 800, Y: 800, Vitality: 100},
	)
	b := plan.NewBuilder(zaptest.NewLogger(t))
	p := defs[0].Planner()
	assert.Equal(t, "pincer", p.Name())
	require.NoError(t, p.Plan(ctx, b))

	cmds := b.Commands()
	// The fighter selection finds no fighters, so its rotate is dropped too.
	require.Len(t, cmds, 7)
	assert.Equal(t, command.KindSelectRegion, cmds[0].Kind)
	assert.Equal(t, 200.0, cmds[0].Bounds.Right)
	assert.Equal(t, 200.0, cmds[2].Bounds.Left)
	assert.Equal(t, command.AssignGroup(2), cmds[3])
	assert.Equal(t, command.Move(250, -10), cmds[5])
	assert.Equal(t, command.Strike(2, 800, 800), cmds[6])
}

func TestDeclarativePivot(t *testing.T) {
	defs, err := ParsePlans([]byte(`
plans:
  - name: spin
    steps:
      - action: select_category
        category: helicopter
      - action: rotate
        angle: 1.5
      - action: scale
        factor: 2
        pivot: point
        x: 7
        y: 9
`))
	require.NoError(t, err)
	ctx := newContext(t,
		model.NewUnit{ID: 1, Owner: 1, Category: model.Helicopter, X: 0, Y: 0, Vitality: 1},
		model.NewUnit{ID: 2, Owner: 1, Category: model.Helicopter, X: 40, Y: 20, Vitality: 1},
	)
	b := plan.NewBuilder(zaptest.NewLogger(t))
	require.NoError(t, defs[0].Planner().Plan(ctx, b))
	cmds := b.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, command.Rotate(20, 10, 1.5), cmds[1])
	assert.Equal(t, command.Scale(7, 9, 2), cmds[2])
	assert.False(t, math.IsInf(cmds[0].Bounds.Left, 0))
}

func TestLoadPlanDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(pincer), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	defs, err := LoadPlanDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(pincer), 0o644))
	_, err = LoadPlanDir(dir)
	assert.ErrorContains(t, err, "defined in both")

	defs, err = LoadPlanDir("")
	assert.NoError(t, err)
	assert.Empty(t, defs)
}
