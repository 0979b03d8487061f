package plan

import (
	"math"

	"github.com/vanguard/agent/internal/command"
	"github.com/vanguard/agent/internal/model"
	"github.com/vanguard/agent/internal/world"
)

// Builtins returns the planners compiled into the agent.
func Builtins() []Planner {
	return []Planner{
		PlannerFunc{ID: "first", Fn: planFirst},
		PlannerFunc{ID: "scale", Fn: planScale},
	}
}

// planFirst pushes each category toward its own quarter of the map: air
// units to the centre, heavy ground units south, IFVs east.
func planFirst(ctx *Context, b *Builder) error {
	w, h := ctx.Width, ctx.Height
	shifts := []struct {
		cat    model.Category
		dx, dy float64
	}{
		{model.Helicopter, w / 2, h / 2},
		{model.Fighter, w / 2, h / 2},
		{model.Tank, 0, h / 2},
		{model.ARRV, 0, h / 2},
		{model.IFV, w / 2, 0},
	}
	for _, s := range shifts {
		sel, ok := command.SelectCategory(s.cat, ctx.World())
		if b.AddIf(sel, ok, 0) {
			b.Add(command.Move(s.dx, s.dy), 0)
		}
	}
	return nil
}

// planScale spreads the fighters and turns the helicopters around.
func planScale(ctx *Context, b *Builder) error {
	if fighters := ctx.Region(world.Ally, model.Fighter); !fighters.Empty() {
		sel, ok := command.SelectCategory(model.Fighter, ctx.World())
		if b.AddIf(sel, ok, 0) {
			cx, cy := fighters.Center()
			b.Add(command.Scale(cx, cy, 4), 0)
		}
	}
	if heli := ctx.Region(world.Ally, model.Helicopter); !heli.Empty() {
		sel, ok := command.SelectCategory(model.Helicopter, ctx.World())
		if b.AddIf(sel, ok, 0) {
			b.Add(command.Rotate(0, ctx.Height/2, math.Pi), 0)
		}
	}
	return nil
}
